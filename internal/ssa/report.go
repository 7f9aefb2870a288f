package ssa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// RenderFinalStateReport builds a Markdown summary of a completed run
// (final species counts, firing count, elapsed simulation time) and
// renders it to HTML via blackfriday, for the server's run-summary page.
func RenderFinalStateReport(runID string, net *Network, simIter int64, simTime float64) (markdown string, html []byte) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", runID)
	fmt.Fprintf(&b, "- Firings: %d\n", simIter)
	fmt.Fprintf(&b, "- Final simulation time: %g\n\n", simTime)
	b.WriteString("## Final species counts\n\n")
	b.WriteString("| Species | Count |\n")
	b.WriteString("|---|---|\n")

	species := net.SpeciesList()
	sort.Slice(species, func(i, j int) bool { return species[i] < species[j] })
	for _, s := range species {
		count, _ := net.SpeciesCount(s)
		fmt.Fprintf(&b, "| %s | %d |\n", s, count)
	}

	markdown = b.String()
	html = blackfriday.Run([]byte(markdown))
	return markdown, html
}
