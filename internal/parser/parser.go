package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractFullText reads a document and returns its whole text, pages joined
// with newlines. Empty pages are skipped.
func ExtractFullText(filePath string) (string, error) {
	pages, err := ExtractPages(filePath)
	if err != nil {
		return "", err
	}
	var kept []string
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n"), nil
}

// ExtractPages reads a document page by page. Formats without a page
// concept map to their nearest unit: one element per sheet for
// spreadsheets, a single element for DOCX, Markdown and plain text. The
// output is opaque UTF-8 text with no structural guarantees.
func ExtractPages(filePath string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return pdfPages(filePath)
	case ".docx":
		return docxText(filePath)
	case ".xlsx":
		return xlsxSheets(filePath)
	case ".ods":
		return odsSheets(filePath)
	case ".md", ".markdown":
		return markdownText(filePath)
	case ".txt":
		return textFile(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func pdfPages(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		pages = append(pages, strings.TrimSpace(pageText))
	}
	return pages, nil
}

func docxText(filePath string) ([]string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc := r.Editable()
	content := strings.TrimSpace(doc.GetContent())
	if content == "" {
		return nil, nil
	}
	return []string{content}, nil
}

func xlsxSheets(filePath string) ([]string, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var sheets []string
	for _, sheet := range f.Sheets {
		var buf strings.Builder
		buf.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				buf.WriteString(cell.String() + "\t")
			}
			buf.WriteString("\n")
		}
		sheets = append(sheets, strings.TrimSpace(buf.String()))
	}
	return sheets, nil
}

func odsSheets(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheets []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var buf strings.Builder
		buf.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				buf.WriteString(cell + "\t")
			}
			buf.WriteString("\n")
		}
		sheets = append(sheets, strings.TrimSpace(buf.String()))
	}
	return sheets, nil
}

// markdownText walks the goldmark AST and collects textual content,
// dropping markup. Headings and paragraphs end their own lines so the
// paragraph chunker sees sensible boundaries.
func markdownText(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(data)
	doc := md.Parser().Parse(reader)

	var buf strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch node := n.(type) {
			case *ast.Text:
				buf.Write(node.Segment.Value(data))
			case *ast.String:
				buf.Write(node.Value)
			}
		} else {
			switch n.(type) {
			case *ast.Heading, *ast.Paragraph, *ast.ListItem:
				buf.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(buf.String())
	if content == "" {
		return nil, nil
	}
	return []string{content}, nil
}

func textFile(filePath string) ([]string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return nil, nil
	}
	return []string{content}, nil
}
