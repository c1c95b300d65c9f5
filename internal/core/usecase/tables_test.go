package usecase

import (
	"strings"
	"testing"
)

func TestSplitTablesNoTablesIsIdentity(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph with a | mid-line pipe.\nThird line."
	out, blocks := SplitTables(text)
	if out != text {
		t.Fatalf("table-free text must pass through unchanged:\n got %q\nwant %q", out, text)
	}
	if len(blocks) != 0 {
		t.Fatalf("expected no table blocks, got %v", blocks)
	}
}

func TestSplitTablesPipeLineWithoutDelimiterRowIsNotATable(t *testing.T) {
	text := "| looks like a header |\nbut this line is prose"
	out, blocks := SplitTables(text)
	if out != text || len(blocks) != 0 {
		t.Fatalf("expected no detection, got %q / %v", out, blocks)
	}
}

func TestSplitTablesExtractsTableWithOriginalOffset(t *testing.T) {
	text := "Intro\n| A | B |\n| --- | --- |\n| 1 | 2 |\nOutro"
	out, blocks := SplitTables(text)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 table block, got %d", len(blocks))
	}
	wantMarkdown := "| A | B |\n| --- | --- |\n| 1 | 2 |"
	if blocks[0].Markdown != wantMarkdown {
		t.Fatalf("markdown mismatch:\n got %q\nwant %q", blocks[0].Markdown, wantMarkdown)
	}
	if blocks[0].StartOffset != strings.Index(text, "| A | B |") {
		t.Fatalf("start offset must index the ORIGINAL text, got %d", blocks[0].StartOffset)
	}
	if blocks[0].TableIndex != 1 {
		t.Fatalf("expected table index 1, got %d", blocks[0].TableIndex)
	}
	if out != "Intro\n__TABLE_1__\nOutro" {
		t.Fatalf("unexpected placeholder text %q", out)
	}
}

func TestSplitTablesMultipleTables(t *testing.T) {
	text := "| A |\n| --- |\n| 1 |\n\ntext\n\n| X |\n| --- |"
	out, blocks := SplitTables(text)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 table blocks, got %d", len(blocks))
	}
	if blocks[0].StartOffset != 0 {
		t.Fatalf("first table offset: got %d, want 0", blocks[0].StartOffset)
	}
	if want := strings.Index(text, "| X |"); blocks[1].StartOffset != want {
		t.Fatalf("second table offset: got %d, want %d", blocks[1].StartOffset, want)
	}
	if blocks[1].TableIndex != 2 {
		t.Fatalf("expected table index 2, got %d", blocks[1].TableIndex)
	}
	if out != "__TABLE_1__\n\ntext\n\n__TABLE_2__" {
		t.Fatalf("unexpected placeholder text %q", out)
	}
}

func TestSplitTablesHeaderOnLastLineIsNotATable(t *testing.T) {
	text := "prose\n| A | B |"
	out, blocks := SplitTables(text)
	if out != text || len(blocks) != 0 {
		t.Fatalf("a trailing pipe line with no delimiter row must stay prose, got %q / %v", out, blocks)
	}
}
