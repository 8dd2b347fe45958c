package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const maxFileLines = 20

type fileTokens struct {
	Path   string
	Volume int
	Tokens int
}

// tokenCounter counts tokens of each rendered file body.
type tokenCounter struct {
	tkm   *tiktoken.Tiktoken
	model string
	files []fileTokens
}

func newTokenCounter(model string) (*tokenCounter, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer for model %q: %w", model, err)
	}
	return &tokenCounter{tkm: tkm, model: model}, nil
}

// countLine returns the tokens of one rendered line, newline included.
func (c *tokenCounter) countLine(line string) int {
	return len(c.tkm.Encode(line+"\n", nil, nil))
}

func (c *tokenCounter) add(volume int, path string, tokens int) {
	c.files = append(c.files, fileTokens{Path: path, Volume: volume, Tokens: tokens})
}

func (c *tokenCounter) report() string {
	return buildTokenReport(c.model, c.files)
}

func buildTokenReport(model string, files []fileTokens) string {
	totalTokens := 0
	volumeTokens := make(map[int]int)
	volumeFiles := make(map[int]int)
	for _, f := range files {
		totalTokens += f.Tokens
		volumeTokens[f.Volume] += f.Tokens
		volumeFiles[f.Volume]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", totalTokens)
	fmt.Fprintf(&b, "\nmodel: %s\n", model)

	volumes := make([]int, 0, len(volumeTokens))
	for v := range volumeTokens {
		volumes = append(volumes, v)
	}
	sort.Ints(volumes)

	fmt.Fprintf(&b, "\nvolumes:\n")
	for _, v := range volumes {
		fmt.Fprintf(&b, "%d\tvolume %d\t(%s, %d files)\n", volumeTokens[v], v, formatPercent(volumeTokens[v], totalTokens), volumeFiles[v])
	}

	top := make([]fileTokens, 0, len(files))
	for _, f := range files {
		if f.Tokens > 0 {
			top = append(top, f)
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Tokens == top[j].Tokens {
			return top[i].Path < top[j].Path
		}
		return top[i].Tokens > top[j].Tokens
	})

	fmt.Fprintf(&b, "\ntop files:\n")
	fileLimit := maxFileLines
	if len(top) < fileLimit {
		fileLimit = len(top)
	}
	for i := 0; i < fileLimit; i++ {
		fmt.Fprintf(&b, "%d\t%s\t(%s)\n", top[i].Tokens, top[i].Path, formatPercent(top[i].Tokens, totalTokens))
	}
	if len(top) > fileLimit {
		fmt.Fprintf(&b, "...\n")
	}
	return b.String()
}

func formatPercent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}
