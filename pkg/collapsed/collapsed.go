// Package collapsed implements the folded-stack text format used by
// flame graph tooling: one line per unique call path, root-first frames
// joined with semicolons, followed by a space and a decimal counter.
package collapsed

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

type Sample struct {
	// Stack is root-first: Stack[0] is the outermost frame.
	Stack []string
	Value int64
}

// Key returns the semicolon-joined stack, the line prefix of the
// folded format and the collapsing identity of the sample.
func (s *Sample) Key() string {
	return strings.Join(s.Stack, ";")
}

type Profile struct {
	Samples []Sample
}

// Total returns the sum of all sample values.
func (p *Profile) Total() int64 {
	var sum int64
	for i := range p.Samples {
		sum += p.Samples[i].Value
	}
	return sum
}

// Sort orders samples lexicographically by stack key. Encoding a sorted
// profile is byte-deterministic regardless of how it was assembled.
func (p *Profile) Sort() {
	sort.Slice(p.Samples, func(i, j int) bool {
		return p.Samples[i].Key() < p.Samples[j].Key()
	})
}

func Decode(r io.Reader) (*Profile, error) {
	res := &Profile{
		Samples: make([]Sample, 0),
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		idx := strings.LastIndexByte(line, ' ')
		if idx == -1 {
			return nil, errors.New("collapsed: malformed input")
		}
		count, err := strconv.ParseInt(line[idx+1:], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("collapsed: malformed input: %w", err)
		}
		res.Samples = append(res.Samples, Sample{
			Stack: strings.Split(line[:idx], ";"),
			Value: count,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("collapsed: %w", err)
	}

	return res, nil
}

func Encode(profile *Profile, w io.Writer) error {
	for i := range profile.Samples {
		sample := &profile.Samples[i]
		_, err := fmt.Fprintf(w, "%s %d\n", sample.Key(), sample.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func Unmarshal(buf []byte) (*Profile, error) {
	return Decode(bytes.NewBuffer(buf))
}

func Marshal(profile *Profile) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := Encode(profile, buf)
	return buf.Bytes(), err
}
