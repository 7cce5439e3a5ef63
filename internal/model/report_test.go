package model

import (
	"testing"
	"time"
)

func TestNewMirrorReport(t *testing.T) {
	t.Parallel()

	before := time.Now()
	report := NewMirrorReport("https://example.com/blog/post")
	after := time.Now()

	if report.PageURL != "https://example.com/blog/post" {
		t.Errorf("PageURL = %q, want the given URL", report.PageURL)
	}
	if report.DateMirrored.Before(before) || report.DateMirrored.After(after) {
		t.Errorf("DateMirrored = %v, want between %v and %v", report.DateMirrored, before, after)
	}
	if report.Error != "" {
		t.Errorf("Error = %q, want empty", report.Error)
	}
}

func TestMirrorReport_Succeeded(t *testing.T) {
	t.Parallel()

	t.Run("no error means success", func(t *testing.T) {
		t.Parallel()

		report := NewMirrorReport("https://example.com/")
		if !report.Succeeded() {
			t.Error("Succeeded() = false, want true")
		}
	})

	t.Run("error means failure", func(t *testing.T) {
		t.Parallel()

		report := NewMirrorReport("https://example.com/")
		report.Error = "fetch failed"
		if report.Succeeded() {
			t.Error("Succeeded() = true, want false")
		}
	})
}

func TestMirrorReport_AddResource(t *testing.T) {
	t.Parallel()

	report := NewMirrorReport("https://example.com/")
	if report.ResourceCount() != 0 {
		t.Errorf("ResourceCount() = %d, want 0", report.ResourceCount())
	}

	report.AddResource(Resource{
		SourceURL: "https://example.com/a.png",
		LocalName: "example-com-a.png",
		Tag:       "img",
		Attr:      "src",
	})
	report.AddResource(Resource{
		SourceURL: "https://example.com/site.css",
		LocalName: "example-com-site.css",
		Tag:       "link",
		Attr:      "href",
	})

	if report.ResourceCount() != 2 {
		t.Errorf("ResourceCount() = %d, want 2", report.ResourceCount())
	}
	if report.Resources[0].Tag != "img" || report.Resources[1].Tag != "link" {
		t.Error("resources are not kept in insertion order")
	}
}
