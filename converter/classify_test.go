package converter

import (
	"strings"
	"testing"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
)

func TestSplitParagraphs(t *testing.T) {
	paras := splitParagraphs("one\ntwo\n\n\n  \nthree\r\nfour\n")
	if len(paras) != 2 {
		t.Fatalf("paragraphs = %d, want 2: %q", len(paras), paras)
	}
	if strings.Join(paras[0], "|") != "one|two" || strings.Join(paras[1], "|") != "three|four" {
		t.Errorf("paragraphs = %q", paras)
	}
}

func TestPartitionPlainText_Fast(t *testing.T) {
	els := partitionPlainText("Heading\n\n- item one\n- item two\n\nA  B\nC  D", 2, false)
	if len(els) != 3 {
		t.Fatalf("elements = %d, want 3:\n%s", len(els), elementsText(els))
	}
	for _, el := range els {
		if el.Kind != document.KindText || el.Page != 2 {
			t.Errorf("fast element = %s p%d, want text p2", el.Kind, el.Page)
		}
	}
	assertElement(t, els[1], document.KindText, "- item one - item two", 2)
}

func TestPartitionPlainText_HiRes(t *testing.T) {
	text := strings.Join([]string{
		"Introduction",
		"",
		"This paragraph wraps across two lines and uses a hyphen-",
		"ated word.",
		"",
		"- first item",
		"  continues here",
		"- second item",
		"",
		"Name    Qty",
		"Apple   3",
		"Pear    12",
	}, "\n")

	got := elementsText(partitionPlainText(text, 1, true))
	want := strings.Join([]string{
		"1:title:Introduction",
		"1:text:This paragraph wraps across two lines and uses a hyphenated word.",
		"1:list_item:first item continues here",
		"1:list_item:second item",
		"1:table:Name,Qty\nApple,3\nPear,12",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("elements =\n%s\nwant\n%s", got, want)
	}
}

func TestClassifyParagraph_MixedRuns(t *testing.T) {
	lines := []string{"Totals below:", "a\tb", "c\td", "1. after the table"}
	got := elementsText(classifyParagraph(lines, 4))
	want := "4:text:Totals below:\n4:table:a,b\nc,d\n4:list_item:after the table\n"
	if got != want {
		t.Errorf("elements =\n%s\nwant\n%s", got, want)
	}
}

func TestIsTitleLine(t *testing.T) {
	tests := map[string]bool{
		"Chapter One":               true,
		"A sentence that ends.":     false,
		"12345":                     false,
		"":                          false,
		"Question?":                 false,
		strings.Repeat("word ", 13): false,
	}
	for in, want := range tests {
		if got := isTitleLine(in); got != want {
			t.Errorf("isTitleLine(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJoinParagraph(t *testing.T) {
	if got := joinParagraph([]string{"multi-", "line", " text "}); got != "multiline text" {
		t.Errorf("joinParagraph = %q", got)
	}
	// a lone dash is not a hyphenated break
	if got := joinParagraph([]string{"a -", "b"}); got != "a - b" {
		t.Errorf("joinParagraph = %q", got)
	}
}

func TestRunningLines(t *testing.T) {
	pages := []string{
		"ACME Corp\nbody one\nPage 1",
		"ACME Corp\nbody two\nPage 2",
		"ACME Corp\nbody three\nPage 3",
	}
	headers, footers := runningLines(pages)
	if !headers["ACME Corp"] || len(headers) != 1 {
		t.Errorf("headers = %v", headers)
	}
	if !footers["Page #"] || len(footers) != 1 {
		t.Errorf("footers = %v", footers)
	}

	body, header, footer := stripRunning(pages[1], headers, footers)
	if header != "ACME Corp" || footer != "Page 2" || strings.TrimSpace(body) != "body two" {
		t.Errorf("stripRunning = %q %q %q", body, header, footer)
	}
}

func TestRunningLines_SinglePageHasNone(t *testing.T) {
	headers, footers := runningLines([]string{"Top\nbody\nBottom"})
	if len(headers)+len(footers) != 0 {
		t.Errorf("headers=%v footers=%v, want none", headers, footers)
	}
}

func TestRunningLines_RequiresMajority(t *testing.T) {
	pages := []string{"Alpha\nx", "Beta\ny", "Gamma\nz", "Alpha\nw"}
	headers, _ := runningLines(pages)
	if !headers["Alpha"] {
		t.Errorf("Alpha repeats on half the pages: headers = %v", headers)
	}
	if headers["Beta"] {
		t.Error("Beta appears once and must not be a header")
	}
}

func TestPartitionPages_HeadersAndFooters(t *testing.T) {
	pages := []string{
		"Report\n\nFirst page body text.\n\n1",
		"Report\n\nSecond page body text.\n\n2",
	}
	got := elementsText(partitionPages(pages, true))
	want := strings.Join([]string{
		"1:header:Report",
		"1:text:First page body text.",
		"1:footer:1",
		"2:header:Report",
		"2:text:Second page body text.",
		"2:footer:2",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("elements =\n%s\nwant\n%s", got, want)
	}

	fast := partitionPages(pages, false)
	for _, el := range fast {
		if el.Kind != document.KindText {
			t.Errorf("fast mode produced %s", el.Kind)
		}
	}
}
