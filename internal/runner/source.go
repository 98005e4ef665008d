package runner

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Names accepted besides the WHATWG labels htmlindex knows.
var encodingAliases = map[string]encoding.Encoding{
	"sjis":  japanese.ShiftJIS,
	"cp932": japanese.ShiftJIS,
	"eucjp": japanese.EUCJP,
}

// decoder returns the transformer turning text in the named encoding into
// UTF-8. The default strips a byte order mark.
func decoder(name string) (transform.Transformer, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "utf-8", "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}

	if enc, ok := encodingAliases[key]; ok {
		return enc.NewDecoder(), nil
	}

	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc.NewDecoder(), nil
}

// DecodeSource converts program text in the named encoding to UTF-8.
func DecodeSource(r io.Reader, encodingName string) (string, error) {
	t, err := decoder(encodingName)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(transform.NewReader(r, t))
	if err != nil {
		return "", fmt.Errorf("decode %s source: %w", encodingName, err)
	}
	return string(data), nil
}

// ReadSource reads and decodes the program file at path.
func ReadSource(path, encodingName string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return DecodeSource(bytes.NewReader(raw), encodingName)
}
