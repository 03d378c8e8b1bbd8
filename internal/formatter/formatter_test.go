package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
	th "github.com/desertthunder/tubelist/internal/testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatJSON},
		{"json", FormatJSON},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"text", FormatText},
		{" txt ", FormatText},
		{"html", FormatHTML},
		{"yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	export := th.SampleExport("PL123", "Road Trip", 2)

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(export)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Position,Video ID,Title,Channel,Published,URL\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "0,vid0,Video 0,Uploader,2024-03-02,https://youtube.com/watch?v=vid0") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 3 {
			t.Errorf("expected 3 lines, got %d", lines)
		}
	})

	t.Run("ExportToCSV quotes titles", func(t *testing.T) {
		e := th.SampleExport("PL", "x", 1)
		e.Items[0].Snippet.Title = `Live, "unplugged"`

		data, _ := ExportToCSV(e)
		if !strings.Contains(string(data), `"Live, ""unplugged"""`) {
			t.Errorf("expected quoted title, got: %s", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(export, "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Road Trip\n",
				"**Description**: Road Trip description",
				"**Channel**: Test Channel",
				"**Videos**: 2",
				"https://youtube.com/playlist?list=PL123",
				"## Videos",
				"1. [Video 0](https://youtube.com/watch?v=vid0) by Uploader (2024-03-02)",
				"2. [Video 1](https://youtube.com/watch?v=vid1)",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got:\n%s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("Markdown should not reference a cover image")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, _ := ExportToMarkdown(export, "cover.jpg")
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Error("Markdown missing cover image")
			}
		})

		t.Run("item without video", func(t *testing.T) {
			e := th.SampleExport("PL", "x", 1)
			e.Items[0].Snippet.ResourceID = models.ResourceID{}
			e.Items[0].Snippet.ChannelTitle = ""

			data, _ := ExportToMarkdown(e, "")
			if !strings.Contains(string(data), "1. Video 0 (2024-03-02)\n") {
				t.Errorf("unexpected markdown:\n%s", data)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Playlist: Road Trip\n",
			"Description: Road Trip description\n",
			"Videos: 2\n\n",
			"1. Video 0 <https://youtube.com/watch?v=vid0>\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Text missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText large count", func(t *testing.T) {
		data, _ := ExportToText(th.SampleExport("PL", "Big", 1234))
		if !strings.Contains(string(data), "Videos: 1,234") {
			t.Error("expected comma separated count")
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(export.Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var decoded models.Playlist
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.ID != "PL123" || decoded.Snippet.Title != "Road Trip" {
			t.Errorf("unexpected metadata %#v", decoded)
		}
		if strings.Contains(string(data), "vid0") {
			t.Error("metadata should not contain items")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(export)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.PlaylistExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded.Items) != 2 || decoded.Items[1].VideoID() != "vid1" {
			t.Errorf("unexpected items %#v", decoded.Items)
		}
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(export)
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		out := string(data)
		for _, want := range []string{"title: Road Trip", "videoId: vid1", "exported_at:"} {
			if !strings.Contains(out, want) {
				t.Errorf("YAML missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("ExportToHTML", func(t *testing.T) {
		data, err := ExportToHTML(export)
		if err != nil {
			t.Fatalf("ExportToHTML failed: %v", err)
		}

		out := string(data)
		for _, want := range []string{
			"<title>Road Trip</title>",
			"<h1>Road Trip</h1>",
			`href="https://youtube.com/watch?v=vid0"`,
			`src="https://i.ytimg.com/PL123.jpg"`,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("HTML missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("ExportToHTML sanitizes user text", func(t *testing.T) {
		unsafe := th.SampleExport("PL9", "Rock & Roll", 1)
		unsafe.Playlist.Snippet.Description = `<script>alert(1)</script>`
		unsafe.Items[0].Snippet.Title = `<img src=x onerror=alert(1)>`

		data, err := ExportToHTML(unsafe)
		if err != nil {
			t.Fatalf("ExportToHTML failed: %v", err)
		}

		out := string(data)
		if strings.Contains(out, "<script") || strings.Contains(out, "onerror") {
			t.Errorf("unsafe markup survived:\n%s", out)
		}
		if !strings.Contains(out, "<title>Rock &amp; Roll</title>") {
			t.Errorf("title not escaped:\n%s", out)
		}
	})

	t.Run("Summary", func(t *testing.T) {
		if got := Summary(th.SampleExport("PL", "One", 1)); got != "One · 1 video" {
			t.Errorf("unexpected summary %q", got)
		}
		if got := Summary(th.SampleExport("PL", "Many", 1500)); got != "Many · 1,500 videos" {
			t.Errorf("unexpected summary %q", got)
		}
	})
}

func TestRender(t *testing.T) {
	export := th.SampleExport("PL1", "Mix", 1)

	for _, f := range []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Render(&buf, export, f); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			if !strings.Contains(buf.String(), "Video 0") {
				t.Errorf("output missing item title: %s", buf.String())
			}
		})
	}

	t.Run("write failure", func(t *testing.T) {
		if err := Render(&th.FWriter{}, export, FormatText); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpegdata"))
		}))
		defer srv.Close()

		data, err := DownloadImage(context.Background(), srv.Client(), srv.URL)
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpegdata" {
			t.Errorf("unexpected data %q", data)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(context.Background(), srv.Client(), srv.URL); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	export := th.SampleExport("PL123", "Road Trip", 3)

	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(export, "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.ItemsFile != "PL123_items.csv" || result.MetadataFile != "PL123_metadata.json" {
				t.Errorf("unexpected paths %#v", result)
			}

			th.AssertFileExists(t, result.ItemsFile)
			th.AssertFileExists(t, result.MetadataFile)
			if !strings.Contains(th.MustReadFile(t, result.ItemsFile), "vid2") {
				t.Error("CSV file missing last item")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom")
			result, err := WriteCSVExport(export, base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			th.AssertFileExists(t, base+"_items.csv")
			th.AssertFileExists(t, result.MetadataFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithoutClient", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "md")
			result, err := WriteMarkdownExport(context.Background(), nil, export, dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertDirExists(t, result.Directory)
			readme := filepath.Join(dir, "README.md")
			th.AssertFileExists(t, readme)
			if result.CoverImage != "" {
				t.Error("cover image should not be downloaded without a client")
			}
			if !strings.Contains(th.MustReadFile(t, readme), "# Road Trip") {
				t.Error("README missing title")
			}
		})

		t.Run("WithCover", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("img"))
			}))
			defer srv.Close()

			e := th.SampleExport("PLc", "Covered", 1)
			e.Playlist.Snippet.Thumbnails = models.Thumbnails{"high": {URL: srv.URL + "/high.jpg"}}

			dir := filepath.Join(t.TempDir(), "md")
			result, err := WriteMarkdownExport(context.Background(), srv.Client(), e, dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.CoverImage != filepath.Join(dir, "cover.jpg") || len(result.Files) != 2 {
				t.Errorf("unexpected result %#v", result)
			}
			if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, "README.md")), "![Cover](cover.jpg)") {
				t.Error("README missing cover reference")
			}
		})

		t.Run("CoverFailureIsNotFatal", func(t *testing.T) {
			srv := httptest.NewServer(http.NotFoundHandler())
			defer srv.Close()

			e := th.SampleExport("PLc", "Covered", 1)
			e.Playlist.Snippet.Thumbnails = models.Thumbnails{"high": {URL: srv.URL}}

			result, err := WriteMarkdownExport(context.Background(), srv.Client(), e, t.TempDir())
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.CoverImage != "" || len(result.Files) != 1 {
				t.Errorf("unexpected result %#v", result)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		got, err := WriteTextExport(export, path)
		if err != nil || got != path {
			t.Fatalf("WriteTextExport = %s, %v", got, err)
		}
		if !strings.Contains(th.MustReadFile(t, path), "3. Video 2") {
			t.Error("text file missing last item")
		}
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		if _, err := WriteJSONExport(export, path); err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("Write", func(t *testing.T) {
		tests := []struct {
			format Format
			files  []string
		}{
			{FormatJSON, []string{"PL123.json"}},
			{FormatCSV, []string{"PL123_items.csv", "PL123_metadata.json"}},
			{FormatText, []string{"PL123_items.txt"}},
			{FormatHTML, []string{"PL123.html"}},
			{FormatYAML, []string{"PL123.yaml"}},
			{FormatMarkdown, []string{filepath.Join("PL123", "README.md")}},
		}

		for _, tt := range tests {
			t.Run(string(tt.format), func(t *testing.T) {
				dir := t.TempDir()
				files, err := Write(context.Background(), nil, export, tt.format, dir)
				if err != nil {
					t.Fatalf("Write failed: %v", err)
				}
				if len(files) != len(tt.files) {
					t.Fatalf("expected %d files, got %v", len(tt.files), files)
				}
				for i, want := range tt.files {
					if files[i] != filepath.Join(dir, want) {
						t.Errorf("file %d = %s, want %s", i, files[i], filepath.Join(dir, want))
					}
					th.AssertFileExists(t, files[i])
				}
			})
		}
	})
}
