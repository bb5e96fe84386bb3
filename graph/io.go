package graph

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ScottSallinen/lollipop-computer/utils"
)

// Reads a whitespace separated edge list: "src dst [weight]" per line.
// Lines starting with '#' or '%' and blank lines are skipped.
// When undirected, every edge is also added in reverse.
func LoadEdgeList(r io.Reader, undirected bool) (*Graph, error) {
	g := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		lines++
		lineText := strings.TrimSpace(scanner.Text())
		if lineText == "" || strings.HasPrefix(lineText, "#") || strings.HasPrefix(lineText, "%") {
			continue
		}
		fields := strings.Fields(lineText)
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 2 or 3 fields, got %d", lines, len(fields))
		}
		src, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: source: %w", lines, err)
		}
		dst, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: target: %w", lines, err)
		}
		weight := DEFAULT_WEIGHT
		if len(fields) == 3 {
			if weight, err = strconv.ParseFloat(fields[2], 64); err != nil {
				return nil, fmt.Errorf("line %d: weight: %w", lines, err)
			}
		}

		g.AddEdge(RawType(src), RawType(dst), weight)
		if undirected {
			g.AddEdge(RawType(dst), RawType(src), weight)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func LoadEdgeListFile(path string, undirected bool) (*Graph, error) {
	m0 := time.Now()
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	g, err := LoadEdgeList(file, undirected)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Msg("Loaded " + path + ": " + utils.V(g.NumVertices()) + " vertices, " + utils.V(g.NumEdges()) + " edges in (ms) " + utils.V(time.Since(m0).Milliseconds()))
	return g, nil
}
