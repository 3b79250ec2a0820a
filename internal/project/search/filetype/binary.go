package filetype

import (
	"bytes"
	"path"
	"strings"
)

// SniffLen is the number of leading bytes IsBinaryContent looks at.
const SniffLen = 8192

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".o": true,
	".obj": true, ".a": true, ".lib": true, ".pdb": true, ".ilk": true,
	".class": true, ".jar": true, ".pyc": true, ".pyo": true, ".wasm": true,
	".zip": true, ".gz": true, ".tgz": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true, ".tar": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tif": true, ".tiff": true,
	".pdf": true, ".mp3": true, ".mp4": true, ".avi": true, ".mov": true,
	".wav": true, ".ogg": true, ".ttf": true, ".otf": true, ".woff": true,
	".woff2": true, ".bin": true, ".dat": true, ".db": true, ".sqlite": true,
}

// Executable and archive signatures that mark a file as binary even when the
// first bytes happen to be printable.
var signatures = [][]byte{
	[]byte("MZ"),                   // PE / DOS executable
	[]byte("\x7fELF"),              // ELF
	{0xfe, 0xed, 0xfa, 0xce},       // Mach-O 32
	{0xfe, 0xed, 0xfa, 0xcf},       // Mach-O 64
	{0xce, 0xfa, 0xed, 0xfe},       // Mach-O 32, little endian
	{0xcf, 0xfa, 0xed, 0xfe},       // Mach-O 64, little endian
	{0xca, 0xfe, 0xba, 0xbe},       // Java class / Mach-O fat
	[]byte("PK\x03\x04"),           // zip, jar
	{0x1f, 0x8b},                   // gzip
	[]byte("\x89PNG"),              // png
	[]byte("%PDF-"),                // pdf
	[]byte("!<arch>\n"),            // ar archive
}

// IsBinaryName reports whether the file extension marks name as binary.
func IsBinaryName(name string) bool {
	return binaryExts[strings.ToLower(path.Ext(name))]
}

// IsBinaryContent reports whether sample, the leading bytes of a file, looks
// binary: a known executable signature, a NUL byte, or more than 10% control
// bytes other than tab, newline, carriage return and form feed.
func IsBinaryContent(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}

	for _, sig := range signatures {
		if len(sig) > 2 && bytes.HasPrefix(sample, sig) {
			return true
		}
	}
	// Two byte signatures are too weak alone; require a control byte too.
	if bytes.HasPrefix(sample, []byte("MZ")) || bytes.HasPrefix(sample, []byte{0x1f, 0x8b}) {
		if hasControl(sample[2:min(len(sample), 64)]) {
			return true
		}
	}

	if len(sample) > SniffLen {
		sample = sample[:SniffLen]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	nonText := 0
	for _, b := range sample {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			nonText++
		}
	}
	return float64(nonText)/float64(len(sample)) > 0.1
}

func hasControl(b []byte) bool {
	for _, c := range b {
		if c < 32 && c != '\t' && c != '\n' && c != '\r' {
			return true
		}
	}
	return false
}
