package catalog

import "fmt"

// Format identifies one available encoding of a track: codec plus bitrate
// tier, as reported by the catalog service.
type Format int

const (
	FormatOggVorbis96 Format = iota
	FormatOggVorbis160
	FormatOggVorbis320
	FormatMP3_256
	FormatMP3_320
	FormatMP3_160
	FormatMP3_96
	FormatMP3_160Enc
	FormatMP4_128
	FormatOther5
	FormatAAC24
	FormatAAC48
	FormatAAC160
	FormatAAC320
	FormatFLAC
	FormatXHEAAC24
	FormatXHEAAC16
	FormatXHEAAC12
	FormatFLAC24Bit
)

// Preference is the canonical format ranking, highest quality first. Track
// format selection scans this list in order and takes the first format the
// track actually carries; it never changes at runtime.
var Preference = [19]Format{
	FormatFLAC24Bit,
	FormatFLAC,
	FormatAAC320,
	FormatMP3_320,
	FormatMP3_256,
	FormatOggVorbis320,
	FormatAAC160,
	FormatMP3_160Enc,
	FormatMP3_160,
	FormatOggVorbis160,
	FormatMP4_128,
	FormatAAC48,
	FormatAAC24,
	FormatXHEAAC24,
	FormatXHEAAC16,
	FormatXHEAAC12,
	FormatOggVorbis96,
	FormatMP3_96,
	FormatOther5,
}

// SelectFormat picks the highest-ranked format present in files. The scan
// runs over Preference, not over the map, so the result does not depend on
// map iteration order. Returns ErrUnsupportedFormat when the track carries
// no format this tool understands.
func SelectFormat(files map[Format]FileID) (Format, FileID, error) {
	for _, format := range Preference {
		if fileID, ok := files[format]; ok {
			return format, fileID, nil
		}
	}
	return 0, "", ErrUnsupportedFormat
}

// String returns the catalog wire name of the format.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

var formatNames = map[Format]string{
	FormatOggVorbis96:  "OGG_VORBIS_96",
	FormatOggVorbis160: "OGG_VORBIS_160",
	FormatOggVorbis320: "OGG_VORBIS_320",
	FormatMP3_256:      "MP3_256",
	FormatMP3_320:      "MP3_320",
	FormatMP3_160:      "MP3_160",
	FormatMP3_96:       "MP3_96",
	FormatMP3_160Enc:   "MP3_160_ENC",
	FormatMP4_128:      "MP4_128",
	FormatOther5:       "OTHER5",
	FormatAAC24:        "AAC_24",
	FormatAAC48:        "AAC_48",
	FormatAAC160:       "AAC_160",
	FormatAAC320:       "AAC_320",
	FormatFLAC:         "FLAC_FLAC",
	FormatXHEAAC24:     "XHE_AAC_24",
	FormatXHEAAC16:     "XHE_AAC_16",
	FormatXHEAAC12:     "XHE_AAC_12",
	FormatFLAC24Bit:    "FLAC_FLAC_24BIT",
}

// ParseFormat converts a catalog wire name to a Format.
func ParseFormat(s string) (Format, error) {
	for format, name := range formatNames {
		if name == s {
			return format, nil
		}
	}
	return 0, fmt.Errorf("unknown format: %s", s)
}

// Extension returns the output file extension for the format's codec family.
func (f Format) Extension() string {
	switch f {
	case FormatOggVorbis96, FormatOggVorbis160, FormatOggVorbis320:
		return "ogg"
	case FormatMP3_96, FormatMP3_160, FormatMP3_256, FormatMP3_320, FormatMP3_160Enc:
		return "mp3"
	case FormatAAC24, FormatAAC48, FormatAAC160, FormatAAC320,
		FormatMP4_128, FormatXHEAAC12, FormatXHEAAC16, FormatXHEAAC24:
		return "aac"
	case FormatFLAC, FormatFLAC24Bit:
		return "flac"
	default:
		return "bin"
	}
}

// IsOggVorbis reports whether the format belongs to the vorbis family.
// Vorbis streams carry a fixed container preamble that the decryption layer
// does not strip, so the materializer windows them past it.
func (f Format) IsOggVorbis() bool {
	switch f {
	case FormatOggVorbis96, FormatOggVorbis160, FormatOggVorbis320:
		return true
	default:
		return false
	}
}

// DataRate returns the assumed average byte rate for the format. It is a
// buffering hint for the streaming layer, not a correctness input.
func (f Format) DataRate() int {
	var kbps float64
	switch f {
	case FormatOggVorbis96:
		kbps = 12
	case FormatOggVorbis160:
		kbps = 20
	case FormatOggVorbis320:
		kbps = 40
	case FormatMP3_256:
		kbps = 32
	case FormatMP3_320:
		kbps = 40
	case FormatMP3_160:
		kbps = 20
	case FormatMP3_96:
		kbps = 12
	case FormatMP3_160Enc:
		kbps = 20
	case FormatAAC24:
		kbps = 3
	case FormatAAC48:
		kbps = 6
	case FormatAAC160:
		kbps = 20
	case FormatAAC320:
		kbps = 40
	case FormatMP4_128:
		kbps = 16
	case FormatOther5:
		kbps = 40
	case FormatFLAC:
		kbps = 112 // assume 900 kbit/s on average
	case FormatXHEAAC12:
		kbps = 1.5
	case FormatXHEAAC16:
		kbps = 2
	case FormatXHEAAC24:
		kbps = 3
	case FormatFLAC24Bit:
		kbps = 3
	}
	return int(kbps * 1024)
}
