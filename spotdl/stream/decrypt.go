package stream

import (
	"crypto/aes"
	"crypto/cipher"
	"io"
	"math/big"
)

// audioIV is the fixed initial counter value all encrypted audio files
// share. The per-block counter is audioIV plus the 16-byte block index.
var audioIV = []byte{
	0x72, 0xe0, 0x67, 0xfb, 0xdd, 0xcb, 0xcf, 0x77,
	0xeb, 0xe8, 0xbc, 0x64, 0x3f, 0x63, 0x0d, 0x93,
}

// decryptReader decrypts an AES-128-CTR audio stream while staying
// seekable: every seek re-derives the counter from the absolute position.
type decryptReader struct {
	src    io.ReadSeeker
	block  cipher.Block
	stream cipher.Stream
	pos    int64
}

// NewDecryptReader wraps src with transparent AES-128-CTR decryption. A nil
// or empty key returns src unchanged, so downloads without a key degrade to
// delivering the bytes as fetched.
func NewDecryptReader(key []byte, src io.ReadSeeker) (io.ReadSeeker, error) {
	if len(key) == 0 {
		return src, nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	d := &decryptReader{src: src, block: block}
	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	if err := d.reposition(pos); err != nil {
		return nil, err
	}
	return d, nil
}

// reposition rebuilds the keystream for absolute position pos: the counter
// starts at the containing block and the intra-block remainder is discarded.
func (d *decryptReader) reposition(pos int64) error {
	iv := new(big.Int).SetBytes(audioIV)
	iv.Add(iv, big.NewInt(pos/aes.BlockSize))

	counter := make([]byte, aes.BlockSize)
	iv.FillBytes(counter)

	d.stream = cipher.NewCTR(d.block, counter)
	if skip := pos % aes.BlockSize; skip > 0 {
		scratch := make([]byte, skip)
		d.stream.XORKeyStream(scratch, scratch)
	}
	d.pos = pos
	return nil
}

func (d *decryptReader) Read(p []byte) (int, error) {
	n, err := d.src.Read(p)
	if n > 0 {
		d.stream.XORKeyStream(p[:n], p[:n])
		d.pos += int64(n)
	}
	return n, err
}

func (d *decryptReader) Seek(offset int64, whence int) (int64, error) {
	pos, err := d.src.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	if pos != d.pos {
		if err := d.reposition(pos); err != nil {
			return 0, err
		}
	}
	return pos, nil
}
