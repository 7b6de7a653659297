// Package digest turns protein sequences into the candidate peptides the
// fragment index is built over: FASTA reading, enzymatic cleavage and
// fixed and variable modification placement.
package digest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Protein is one FASTA entry.
type Protein struct {
	Accession   string // First token of the header
	Description string // Rest of the header
	Sequence    string // Upper-case residues without whitespace or stop
}

// ReadFASTA reads every entry from r. Entries with an empty sequence are
// kept so protein indices match the file order.
func ReadFASTA(r io.Reader) ([]Protein, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)

	var proteins []Protein
	var seq strings.Builder
	lineNum := 0

	flush := func() {
		if len(proteins) > 0 {
			proteins[len(proteins)-1].Sequence = seq.String()
		}
		seq.Reset()
	}

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == ';' {
			continue
		}

		if line[0] == '>' {
			flush()
			header := strings.TrimSpace(line[1:])
			accession, description, _ := strings.Cut(header, " ")
			if accession == "" {
				return nil, fmt.Errorf("line %d: FASTA header without accession", lineNum)
			}
			proteins = append(proteins, Protein{
				Accession:   accession,
				Description: strings.TrimSpace(description),
			})
			continue
		}

		if len(proteins) == 0 {
			return nil, fmt.Errorf("line %d: sequence before the first FASTA header", lineNum)
		}
		for i := 0; i < len(line); i++ {
			c := line[i]
			switch {
			case c >= 'a' && c <= 'z':
				seq.WriteByte(c - 'a' + 'A')
			case c >= 'A' && c <= 'Z':
				seq.WriteByte(c)
			case c == '*' || c == ' ' || c == '\t':
			default:
				return nil, fmt.Errorf("line %d: invalid sequence character %q", lineNum, c)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading FASTA: %w", err)
	}
	flush()

	return proteins, nil
}
