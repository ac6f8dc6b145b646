// Package hotword implements the client-side hot-word substitution layers
// applied to the final transcript before output: a Chinese phrase table, an
// English phrase table, a regex rule table, and a keyword list used to route
// session logs. The three table layers are independently toggleable pure
// string->string passes; the keyword list is not a text pass. Grounded on the original system's
// hot_word_replacer.py dispatcher (four layers applied in a fixed order) and
// hot_word_kwd.py (a plain list, one entry per non-comment line).
package hotword

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// PhraseTable is a simple string->string map applied to whole-phrase matches,
// the shape of the zh/en hot-word layers: "find this exact phrase, replace it
// with that one", loaded one "from\tto" pair per line.
type PhraseTable map[string]string

// LoadPhraseTable reads a tab-separated "from\tto" table, skipping blank
// lines and lines starting with "#".
func LoadPhraseTable(path string) (PhraseTable, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	table := make(PhraseTable)
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		table[parts[0]] = parts[1]
	}
	return table, nil
}

// Apply replaces every occurrence of each configured phrase, longest keys
// first so a longer phrase isn't shadowed by a shorter one nested inside it.
func (t PhraseTable) Apply(text string) string {
	keys := sortedByLengthDesc(t)
	pairs := make([]string, 0, 2*len(keys))
	for _, from := range keys {
		pairs = append(pairs, from, t[from])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func sortedByLengthDesc(t PhraseTable) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && len(keys[j-1]) < len(keys[j]); j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// RuleTable is an ordered list of regex->replacement pairs, applied in file
// order, the shape of the "rule" hot-word layer.
type RuleTable []rulePair

type rulePair struct {
	pattern *regexp.Regexp
	replace string
}

// LoadRuleTable reads a tab-separated "pattern\treplacement" table; patterns
// use Go's RE2 syntax (a strict subset of the original's regex engine —
// lookaround constructs in a user-authored rule file fail to compile, and
// any such rule makes LoadRuleTable return an error for the whole table).
func LoadRuleTable(path string) (RuleTable, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	var table RuleTable
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		re, err := regexp.Compile(parts[0])
		if err != nil {
			return nil, fmt.Errorf("hotword: rule table %s: %w", path, err)
		}
		table = append(table, rulePair{pattern: re, replace: parts[1]})
	}
	return table, nil
}

// Apply runs every compiled rule over text in order.
func (t RuleTable) Apply(text string) string {
	for _, r := range t {
		text = r.pattern.ReplaceAllString(text, r.replace)
	}
	return text
}

// KeywordList is the plain list used to route a transcript to a keyword-
// prefixed session log file (see audiofile.WriteMarkdownLog), mirroring
// hot_word_kwd.py's do_update_kwd: one keyword per non-comment line, plus an
// implicit leading "" so unprefixed transcripts still match something.
type KeywordList []string

// LoadKeywordList reads one keyword per line, skipping blanks and "#" lines.
func LoadKeywordList(path string) (KeywordList, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	list := KeywordList{""}
	list = append(list, lines...)
	return list, nil
}

// Match returns the longest keyword in the list that text starts with, and
// the text with that keyword prefix (and any immediately following
// separator punctuation) removed.
func (k KeywordList) Match(text string) (keyword, rest string) {
	best := ""
	for _, kwd := range k {
		if kwd != "" && strings.HasPrefix(text, kwd) && len(kwd) > len(best) {
			best = kwd
		}
	}
	return best, strings.TrimLeft(strings.TrimPrefix(text, best), "，。,.")
}

// Layers bundles the four substitution layers and their enable flags, the
// Go equivalent of hot_word_replacer.hot_sub's sequential Config-gated calls.
type Layers struct {
	ZH PhraseTable
	EN PhraseTable
	Rule RuleTable
	Kwd KeywordList

	EnableZH   bool
	EnableEN   bool
	EnableRule bool
	EnableKwd  bool // mirrors hot_kwd, which gates loading the kwd list in the client; Apply never consults it
}

// Apply runs the enabled substitution layers over a transcript, in
// the original's fixed zh -> en -> rule order.
func (l Layers) Apply(text string) string {
	if l.EnableZH && l.ZH != nil {
		text = l.ZH.Apply(text)
	}
	if l.EnableEN && l.EN != nil {
		text = l.EN.Apply(text)
	}
	if l.EnableRule && l.Rule != nil {
		text = l.Rule.Apply(text)
	}
	return text
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
