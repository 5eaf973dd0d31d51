package finbert

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Special tokens of the uncased BERT vocabulary
const (
	tokenCLS = "[CLS]"
	tokenSEP = "[SEP]"
	tokenUNK = "[UNK]"
	tokenPAD = "[PAD]"

	maxWordChars = 100
)

// Tokenizer is an uncased BERT WordPiece tokenizer
type Tokenizer struct {
	vocab map[string]int64
	cls   int64
	sep   int64
	unk   int64
}

// LoadVocab reads a vocab.txt file with one token per line
func LoadVocab(path string) (*Tokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()
	return ReadVocab(f)
}

// ReadVocab builds a Tokenizer from r; the line number is the token id
func ReadVocab(r io.Reader) (*Tokenizer, error) {
	vocab := make(map[string]int64)
	sc := bufio.NewScanner(r)
	var id int64
	for sc.Scan() {
		vocab[strings.TrimRight(sc.Text(), "\r")] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}

	t := &Tokenizer{vocab: vocab}
	for tok, dst := range map[string]*int64{tokenCLS: &t.cls, tokenSEP: &t.sep, tokenUNK: &t.unk} {
		v, ok := vocab[tok]
		if !ok {
			return nil, fmt.Errorf("vocab is missing %s", tok)
		}
		*dst = v
	}
	return t, nil
}

// Encoding is the model input for one sequence
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TypeIDs       []int64
}

// Encode tokenizes text into [CLS] tokens [SEP], truncating silently so the
// sequence never exceeds maxLen
func (t *Tokenizer) Encode(text string, maxLen int) Encoding {
	ids := []int64{t.cls}
	budget := maxLen - 2
	for _, word := range basicTokens(text) {
		pieces := t.wordPiece(word)
		if len(ids)-1+len(pieces) > budget {
			ids = append(ids, pieces[:budget-(len(ids)-1)]...)
			break
		}
		ids = append(ids, pieces...)
	}
	ids = append(ids, t.sep)

	enc := Encoding{
		InputIDs:      ids,
		AttentionMask: make([]int64, len(ids)),
		TypeIDs:       make([]int64, len(ids)),
	}
	for i := range enc.AttentionMask {
		enc.AttentionMask[i] = 1
	}
	return enc
}

// wordPiece splits one word by greedy longest match against the vocabulary
func (t *Tokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > maxWordChars {
		return []int64{t.unk}
	}

	var out []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := int64(-1)
		for ; end > start; end-- {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
		}
		if found < 0 {
			return []int64{t.unk}
		}
		out = append(out, found)
		start = end
	}
	return out
}

// basicTokens lower-cases, strips accents and splits on whitespace and punctuation
func basicTokens(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}

	for _, r := range norm.NFD.String(strings.ToLower(text)) {
		switch {
		case unicode.Is(unicode.Mn, r), r == 0, r == unicode.ReplacementChar, unicode.IsControl(r) && !unicode.IsSpace(r):
		case unicode.IsSpace(r):
			flush()
		case isPunct(r) || isCJK(r):
			flush()
			out = append(out, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r)
}
