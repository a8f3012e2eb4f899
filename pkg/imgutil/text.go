package imgutil

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	chunkText           = "tEXt"
	chunkInternational  = "iTXt"
	chunkCompressedText = "zTXt"
	chunkData           = "IDAT"
	chunkEnd            = "IEND"

	maxKeywordLen = 79
)

var (
	pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

	// ErrNotPNG は PNG として解釈できないデータであることを示します。
	ErrNotPNG = errors.New("PNG データではありません")
)

// TextEntry は PNG のテキストチャンクに書き込むキーワードと本文です。
type TextEntry struct {
	Keyword string
	Text    string
}

type chunk struct {
	typ  string
	data []byte
	raw  []byte // length, type, data, crc を含むチャンク全体
}

// EmbedText は PNG データにテキストチャンクを挿入した新しいデータを返すのだ。
// 最初の IDAT の直前に挿入し、同じキーワードの既存テキストチャンクは置き換えます。
// Latin-1 で表現できる本文は tEXt、それ以外は iTXt（UTF-8）で書き込みます。
func EmbedText(data []byte, entries []TextEntry) ([]byte, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	replaced := make(map[string]struct{}, len(entries))
	encoded := make([][]byte, 0, len(entries))
	for _, e := range entries {
		c, err := encodeTextChunk(e)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, c)
		replaced[e.Keyword] = struct{}{}
	}

	out := bytes.NewBuffer(make([]byte, 0, len(data)+64*len(entries)))
	out.Write(pngSignature)

	inserted := false
	for _, c := range chunks {
		if isTextChunk(c.typ) {
			if _, ok := replaced[textKeyword(c.data)]; ok {
				continue
			}
		}
		if c.typ == chunkData && !inserted {
			for _, e := range encoded {
				out.Write(e)
			}
			inserted = true
		}
		out.Write(c.raw)
	}

	if !inserted {
		return nil, fmt.Errorf("%w: IDAT チャンクが見つかりません", ErrNotPNG)
	}
	return out.Bytes(), nil
}

// ReadText は PNG のテキストチャンク（tEXt, zTXt, iTXt）をキーワードごとのマップとして返します。
// 同じキーワードが複数ある場合は後のチャンクが優先されるのだ。
func ReadText(data []byte) (map[string]string, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	texts := make(map[string]string)
	for _, c := range chunks {
		if !isTextChunk(c.typ) {
			continue
		}
		keyword, text, err := decodeTextChunk(c)
		if err != nil {
			return nil, err
		}
		texts[keyword] = text
	}
	return texts, nil
}

func readChunks(data []byte) ([]chunk, error) {
	if !IsPNG(data) {
		return nil, ErrNotPNG
	}

	var chunks []chunk
	pos := len(pngSignature)
	for pos < len(data) {
		if len(data)-pos < 12 {
			return nil, fmt.Errorf("%w: チャンクが途中で途切れています", ErrNotPNG)
		}
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		end := pos + 12 + length
		if length < 0 || end > len(data) {
			return nil, fmt.Errorf("%w: チャンク長が不正です", ErrNotPNG)
		}

		c := chunk{
			typ:  string(data[pos+4 : pos+8]),
			data: data[pos+8 : pos+8+length],
			raw:  data[pos:end],
		}
		chunks = append(chunks, c)
		pos = end

		if c.typ == chunkEnd {
			break
		}
	}
	return chunks, nil
}

func encodeTextChunk(e TextEntry) ([]byte, error) {
	keyword, err := encodeKeyword(e.Keyword)
	if err != nil {
		return nil, err
	}
	if strings.ContainsRune(e.Text, 0) {
		return nil, fmt.Errorf("テキストに NUL 文字は含められません (keyword: %s)", e.Keyword)
	}

	var body bytes.Buffer
	body.Write(keyword)
	body.WriteByte(0)

	typ := chunkText
	if latin1, ok := toLatin1(e.Text); ok {
		body.Write(latin1)
	} else {
		typ = chunkInternational
		// 圧縮フラグ, 圧縮方式, 言語タグ終端, 翻訳キーワード終端
		body.Write([]byte{0, 0, 0, 0})
		body.WriteString(e.Text)
	}
	return encodeChunk(typ, body.Bytes()), nil
}

func encodeChunk(typ string, data []byte) []byte {
	buf := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(data)))
	copy(buf[4:8], typ)
	buf = append(buf, data...)

	crc := crc32.ChecksumIEEE(buf[4:])
	return binary.BigEndian.AppendUint32(buf, crc)
}

func decodeTextChunk(c chunk) (string, string, error) {
	keyword, rest, ok := bytes.Cut(c.data, []byte{0})
	if !ok {
		return "", "", fmt.Errorf("%s チャンクの形式が不正です", c.typ)
	}
	key := fromLatin1(keyword)

	switch c.typ {
	case chunkText:
		return key, fromLatin1(rest), nil

	case chunkCompressedText:
		if len(rest) < 1 {
			return "", "", fmt.Errorf("zTXt チャンクの形式が不正です (keyword: %s)", key)
		}
		text, err := inflate(rest[1:])
		if err != nil {
			return "", "", fmt.Errorf("zTXt の展開に失敗しました (keyword: %s): %w", key, err)
		}
		return key, fromLatin1(text), nil

	default: // iTXt
		if len(rest) < 2 {
			return "", "", fmt.Errorf("iTXt チャンクの形式が不正です (keyword: %s)", key)
		}
		compressed := rest[0] == 1
		rest = rest[2:]
		// 言語タグと翻訳キーワードを読み飛ばすのだ
		for range 2 {
			_, after, found := bytes.Cut(rest, []byte{0})
			if !found {
				return "", "", fmt.Errorf("iTXt チャンクの形式が不正です (keyword: %s)", key)
			}
			rest = after
		}
		if compressed {
			text, err := inflate(rest)
			if err != nil {
				return "", "", fmt.Errorf("iTXt の展開に失敗しました (keyword: %s): %w", key, err)
			}
			rest = text
		}
		return key, string(rest), nil
	}
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// encodeKeyword はキーワードを Latin-1 のバイト列にします。
// 使える文字は 0x20-0x7E と 0xA1-0xFF で、長さは1〜79バイトなのだ。
func encodeKeyword(keyword string) ([]byte, error) {
	b, ok := toLatin1(keyword)
	if !ok {
		return nil, fmt.Errorf("キーワードは Latin-1 で表現できる必要があります: '%s'", keyword)
	}
	if len(b) == 0 || len(b) > maxKeywordLen {
		return nil, fmt.Errorf("キーワードは1〜%dバイトである必要があります: '%s'", maxKeywordLen, keyword)
	}
	for _, c := range b {
		if c < 0x20 || (c > 0x7e && c < 0xa1) {
			return nil, fmt.Errorf("キーワードに使用できない文字が含まれています: '%s'", keyword)
		}
	}
	return b, nil
}

func isTextChunk(typ string) bool {
	return typ == chunkText || typ == chunkInternational || typ == chunkCompressedText
}

func textKeyword(data []byte) string {
	keyword, _, _ := bytes.Cut(data, []byte{0})
	return fromLatin1(keyword)
}

func toLatin1(s string) ([]byte, bool) {
	if !utf8.ValidString(s) {
		return nil, false
	}
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			return nil, false
		}
		out = append(out, byte(r))
	}
	return out, true
}

func fromLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
