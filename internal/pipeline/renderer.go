package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/mrsurvey/internal/model"
)

// ErrUnknownFormat is returned for an output format the renderer does not know
var ErrUnknownFormat = errors.New("unknown output format")

// Output formats
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Formats lists every supported output format
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatHTML}
}

const footer = "Rates are empirical: each is the share of single-witness rounds that called the composite probably prime."

// ValidateFormat reports whether format can be rendered. Aliases yml and md
// are accepted, and an empty format means text.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case "", FormatText, FormatJSON, FormatYAML, "yml", FormatMarkdown, "md", FormatHTML:
		return nil
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats(), ", "))
}

// Renderer writes reports in the supported formats
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// Render writes report to w in the given format. An empty format means text.
func (r *Renderer) Render(w io.Writer, report *model.Report, format string) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return r.RenderText(w, report)
	case FormatJSON:
		return r.RenderJSON(w, report)
	case FormatYAML, "yml":
		return r.RenderYAML(w, report)
	case FormatMarkdown, "md":
		return r.RenderMarkdown(w, report)
	case FormatHTML:
		return r.RenderHTML(w, report)
	default:
		return ValidateFormat(format)
	}
}

// RenderText writes one "[n, rate]" line per ranked entry
func (r *Renderer) RenderText(w io.Writer, report *model.Report) error {
	var b strings.Builder
	for _, e := range report.Entries {
		fmt.Fprintf(&b, "[%d, %s]\n", e.N, formatRate(e.ErrorRate))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// RenderYAML writes the full report as YAML
func (r *Renderer) RenderYAML(w io.Writer, report *model.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode YAML: %w", err)
	}
	return enc.Close()
}

// RenderMarkdown writes a summary header followed by the ranking table
func (r *Renderer) RenderMarkdown(w io.Writer, report *model.Report) error {
	var b strings.Builder
	p, s := report.Params, report.Summary

	b.WriteString("# Miller-Rabin False-Positive Survey\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- **Range:** odd n in [%d, %d)\n", p.Start, p.End)
	fmt.Fprintf(&b, "- **Trials per candidate:** %d\n", p.Trials)
	fmt.Fprintf(&b, "- **Strategy:** %s\n", p.Strategy)
	fmt.Fprintf(&b, "- **Seed:** %d\n", p.Seed)
	fmt.Fprintf(&b, "- **Candidates:** %d (%d primes, %d composites)\n", s.Candidates, s.Primes, s.Composites)
	fmt.Fprintf(&b, "- **False positives:** %d, over %d composites\n", s.FalsePositives, s.Misleading)
	fmt.Fprintf(&b, "- **False negatives:** %d\n", s.FalseNegatives)
	fmt.Fprintf(&b, "- **Mean error rate:** %.4f (max %.4f)\n", s.MeanErrorRate, s.MaxErrorRate)
	if report.Cached {
		b.WriteString("- **Cached:** yes\n")
	}
	b.WriteString("\n")

	b.WriteString("## Ranking\n\n")
	if len(report.Entries) == 0 {
		b.WriteString("No composites in range.\n\n")
	} else {
		fmt.Fprintf(&b, "| # | n | Error rate | %s interval | Exact | Severity |\n", confidenceLabel(p.Confidence))
		b.WriteString("|---|---|---|---|---|---|\n")
		for i, e := range report.Entries {
			fmt.Fprintf(&b, "| %d | %d | %s | [%.4f, %.4f] | %s | %s |\n",
				i+1, e.N, formatRate(e.ErrorRate), e.Interval.Lower, e.Interval.Upper, exactLabel(e), e.Severity)
		}
		b.WriteString("\n")
	}

	if len(report.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range report.Signals {
			fmt.Fprintf(&b, "- **[%s] %s:** %s\n", sig.Severity, sig.Type, sig.Description)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "_%s_\n", footer)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderHTML writes a standalone HTML page with the summary and ranking
func (r *Renderer) RenderHTML(w io.Writer, report *model.Report) error {
	p, s := report.Params, report.Summary

	summary := element(atom.Dl, nil)
	for _, row := range [][2]string{
		{"Run", report.RunID},
		{"Range", fmt.Sprintf("odd n in [%d, %d)", p.Start, p.End)},
		{"Trials per candidate", strconv.Itoa(p.Trials)},
		{"Strategy", p.Strategy},
		{"Seed", strconv.FormatUint(p.Seed, 10)},
		{"Candidates", fmt.Sprintf("%d (%d primes, %d composites)", s.Candidates, s.Primes, s.Composites)},
		{"False positives", strconv.FormatInt(s.FalsePositives, 10)},
		{"False negatives", strconv.FormatInt(s.FalseNegatives, 10)},
		{"Mean error rate", fmt.Sprintf("%.4f", s.MeanErrorRate)},
	} {
		summary.AppendChild(element(atom.Dt, nil, text(row[0])))
		summary.AppendChild(element(atom.Dd, nil, text(row[1])))
	}

	body := element(atom.Body, nil,
		element(atom.H1, nil, text("Miller-Rabin False-Positive Survey")),
		summary,
	)

	if len(report.Entries) == 0 {
		body.AppendChild(element(atom.P, nil, text("No composites in range.")))
	} else {
		head := element(atom.Tr, nil)
		for _, h := range []string{"#", "n", "Error rate", confidenceLabel(p.Confidence) + " interval", "Exact", "Severity"} {
			head.AppendChild(element(atom.Th, nil, text(h)))
		}
		rows := element(atom.Tbody, nil)
		for i, e := range report.Entries {
			tr := element(atom.Tr, []html.Attribute{{Key: "class", Val: string(e.Severity)}})
			for _, cell := range []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(e.N, 10),
				formatRate(e.ErrorRate),
				fmt.Sprintf("[%.4f, %.4f]", e.Interval.Lower, e.Interval.Upper),
				exactLabel(e),
				string(e.Severity),
			} {
				tr.AppendChild(element(atom.Td, nil, text(cell)))
			}
			rows.AppendChild(tr)
		}
		body.AppendChild(element(atom.Table, nil, element(atom.Thead, nil, head), rows))
	}

	if len(report.Signals) > 0 {
		list := element(atom.Ul, nil)
		for _, sig := range report.Signals {
			list.AppendChild(element(atom.Li, []html.Attribute{{Key: "class", Val: string(sig.Severity)}},
				text(fmt.Sprintf("[%s] %s: %s", sig.Severity, sig.Type, sig.Description))))
		}
		body.AppendChild(element(atom.H2, nil, text("Signals")))
		body.AppendChild(list)
	}

	if r.includeFooter {
		body.AppendChild(element(atom.Footer, nil, text(footer)))
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, nil,
		element(atom.Head, nil,
			element(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
			element(atom.Title, nil, text("mrsurvey "+report.RunID)),
		),
		body,
	))

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// RenderSummary prints a short human summary to w
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	s := report.Summary
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Survey Complete\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Candidates:       %d (%d primes, %d composites)\n", s.Candidates, s.Primes, s.Composites)
	fmt.Fprintf(w, "  Trials:           %d\n", s.TotalTrials)
	fmt.Fprintf(w, "  False positives:  %d\n", s.FalsePositives)
	fmt.Fprintf(w, "  Misleading:       %d composites\n", s.Misleading)
	fmt.Fprintf(w, "  Max error rate:   %s\n", formatRate(s.MaxErrorRate))
	fmt.Fprintf(w, "  Seed:             %d\n", report.Params.Seed)
	fmt.Fprintf(w, "  Duration:         %v\n", report.Duration.Round(time.Millisecond))
	if report.Cached {
		fmt.Fprintf(w, "  (served from cache)\n")
	}
	fmt.Fprintf(w, "\n")
}

func element(tag atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: tag, Data: tag.String(), Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

func exactLabel(e model.Entry) string {
	if e.ExactRate == nil {
		return "-"
	}
	return formatRate(*e.ExactRate)
}

func confidenceLabel(c float64) string {
	return strconv.FormatFloat(c*100, 'g', 4, 64) + "%"
}
