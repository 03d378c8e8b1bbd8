// package formatter renders playlist exports and writes them to disk.
//
// Supported formats are JSON, YAML, CSV, Markdown, HTML and plain text. HTML is the Markdown
// rendering passed through goldmark and sanitized with bluemonday, since titles and descriptions
// are user supplied.
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/goccy/go-yaml"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatHTML     Format = "html"
	FormatYAML     Format = "yaml"
)

var htmlPolicy = bluemonday.UGCPolicy()

// Extension returns the file extension used for single-file exports.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// ContentType returns the MIME type of the rendered format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// ParseFormat accepts a format name or one of its common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "html", "htm":
		return FormatHTML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want json, yaml, csv, markdown, html or txt)", shared.ErrInvalidArgument, s)
	}
}

const dateLayout = "2006-01-02"

func publishedDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// ExportToCSV converts a PlaylistExport to CSV with columns: Position, Video ID, Title, Channel, Published, URL
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Video ID", "Title", "Channel", "Published", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range export.Items {
		record := []string{
			strconv.Itoa(item.Snippet.Position),
			item.VideoID(),
			item.Snippet.Title,
			item.Snippet.ChannelTitle,
			publishedDate(item.Snippet.PublishedAt),
			item.WatchURL(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown with an optional cover image
func ExportToMarkdown(export *models.PlaylistExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer
	snippet := export.Playlist.Snippet

	fmt.Fprintf(&buf, "# %s\n\n", snippet.Title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	if snippet.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", snippet.Description)
	}

	if snippet.ChannelTitle != "" {
		fmt.Fprintf(&buf, "**Channel**: %s\n", snippet.ChannelTitle)
	}
	fmt.Fprintf(&buf, "**Videos**: %s\n", humanize.Comma(int64(len(export.Items))))
	fmt.Fprintf(&buf, "**Link**: https://youtube.com/playlist?list=%s\n\n", export.Playlist.ID)

	buf.WriteString("## Videos\n\n")
	for i, item := range export.Items {
		line := item.Snippet.Title
		if url := item.WatchURL(); url != "" {
			line = fmt.Sprintf("[%s](%s)", item.Snippet.Title, url)
		}
		if item.Snippet.ChannelTitle != "" {
			line += " by " + item.Snippet.ChannelTitle
		}
		if d := publishedDate(item.Snippet.PublishedAt); d != "" {
			line += " (" + d + ")"
		}
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	snippet := export.Playlist.Snippet

	fmt.Fprintf(&buf, "Playlist: %s\n", snippet.Title)
	if snippet.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", snippet.Description)
	}
	fmt.Fprintf(&buf, "Videos: %s\n\n", humanize.Comma(int64(len(export.Items))))

	for i, item := range export.Items {
		fmt.Fprintf(&buf, "%d. %s", i+1, item.Snippet.Title)
		if url := item.WatchURL(); url != "" {
			fmt.Fprintf(&buf, " <%s>", url)
		}
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// ExportToJSON marshals the whole export, items included.
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	return json.MarshalIndent(export, "", "  ")
}

// ExportToYAML converts the whole export to YAML using the same field names as the JSON export.
func ExportToYAML(export *models.PlaylistExport) ([]byte, error) {
	data, err := json.Marshal(export)
	if err != nil {
		return nil, err
	}
	return yaml.JSONToYAML(data)
}

// ExportToHTML renders the Markdown export as a standalone, sanitized HTML page.
// The cover is the playlist's remote thumbnail.
func ExportToHTML(export *models.PlaylistExport) ([]byte, error) {
	md, err := ExportToMarkdown(export, export.Playlist.Snippet.Thumbnails.Best())
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := goldmark.Convert(md, &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(export.Playlist.Snippet.Title))
	buf.WriteString("</head>\n<body>\n")
	buf.Write(htmlPolicy.SanitizeBytes(body.Bytes()))
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without items)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return json.MarshalIndent(playlist, "", "  ")
}

// Summary is a one-line human description such as "Road Trip · 1,204 videos".
func Summary(export *models.PlaylistExport) string {
	n := len(export.Items)
	return fmt.Sprintf("%s · %s %s", export.Playlist.Snippet.Title, humanize.Comma(int64(n)), english.PluralWord(n, "video", ""))
}

// DownloadImage downloads an image with client and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ItemsFile    string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV with an accompanying metadata JSON file.
//
// Defaults to the playlist ID as the base filename & creates {base}_items.csv and {base}_metadata.json
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	itemsFile := baseFilepath + "_items.csv"
	if err := os.WriteFile(itemsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{ItemsFile: itemsFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a playlist to Markdown in a dedicated directory.
//
// Directory name defaults to the playlist ID. When client is non-nil the playlist's best thumbnail
// is downloaded to {dir}/cover.jpg; a failed download only logs a warning.
func WriteMarkdownExport(ctx context.Context, client *http.Client, export *models.PlaylistExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Playlist.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if imageURL := export.Playlist.Snippet.Thumbnails.Best(); client != nil && imageURL != "" {
		imageData, err := DownloadImage(ctx, client, imageURL)
		if err != nil {
			log.Warn("failed to download cover image", "playlist", export.Playlist.ID, "error", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				log.Warn("failed to save cover image", "path", coverImagePath, "error", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport exports a playlist to plain text.
//
// Defaults to {playlist.ID}_items.txt as the filename.
func WriteTextExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Playlist.ID + "_items.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the full export to path, defaulting to {playlist.ID}.json.
func WriteJSONExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Playlist.ID + ".json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}

	return path, nil
}

// WriteHTMLExport writes the HTML page to path, defaulting to {playlist.ID}.html.
func WriteHTMLExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Playlist.ID + ".html"
	}

	data, err := ExportToHTML(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write HTML file: %w", err)
	}

	return path, nil
}

// WriteYAMLExport writes the full export to path, defaulting to {playlist.ID}.yaml.
func WriteYAMLExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Playlist.ID + ".yaml"
	}

	data, err := ExportToYAML(export)
	if err != nil {
		return "", fmt.Errorf("YAML marshal failed: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("YAML write failed: %w", err)
	}

	return path, nil
}

// Write renders export in format under dir and returns the created files.
func Write(ctx context.Context, client *http.Client, export *models.PlaylistExport, format Format, dir string) ([]string, error) {
	base := filepath.Join(dir, export.Playlist.ID)

	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(export, base)
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{res.ItemsFile, res.MetadataFile}, nil
	case FormatMarkdown:
		res, err := WriteMarkdownExport(ctx, client, export, base)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return res.Files, nil
	case FormatText:
		path, err := WriteTextExport(export, base+"_items.txt")
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil
	case FormatHTML:
		path, err := WriteHTMLExport(export, base+".html")
		if err != nil {
			return nil, fmt.Errorf("HTML export failed: %w", err)
		}
		return []string{path}, nil
	case FormatYAML:
		path, err := WriteYAMLExport(export, base+".yaml")
		if err != nil {
			return nil, fmt.Errorf("YAML export failed: %w", err)
		}
		return []string{path}, nil
	default:
		path, err := WriteJSONExport(export, base+".json")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}
}

// Render writes export to w in format. Markdown is rendered without a cover image.
func Render(w io.Writer, export *models.PlaylistExport, format Format) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatCSV:
		data, err = ExportToCSV(export)
	case FormatMarkdown:
		data, err = ExportToMarkdown(export, "")
	case FormatText:
		data, err = ExportToText(export)
	case FormatHTML:
		data, err = ExportToHTML(export)
	case FormatYAML:
		data, err = ExportToYAML(export)
	default:
		data, err = ExportToJSON(export)
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}
