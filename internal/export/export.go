// JSON export of ROI collections and code snippet generation
package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"screen-region-engine/internal/roi"
)

const documentVersion = "1.0"

// Record is the wire form of one region. Center serializes as a [cx, cy]
// pair; action-specific fields are omitted when the action does not apply.
type Record struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	NodeName string `json:"node_name,omitempty"`
	Type     string `json:"roi_type"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Center   [2]int `json:"center"`

	ImageName   string `json:"image_name,omitempty"`
	ImageAction string `json:"image_action,omitempty"`

	Action          string `json:"action,omitempty"`
	ClickMode       string `json:"click_mode,omitempty"`
	ClickCount      int    `json:"click_count,omitempty"`
	ClickIntervalMS int    `json:"click_interval_ms,omitempty"`
	SwipeDirection  string `json:"swipe_direction,omitempty"`
	SwipeSpeedPxS   int    `json:"swipe_speed_px_s,omitempty"`
}

// Document is the top-level export payload.
type Document struct {
	Version    string   `json:"version"`
	ExportTime string   `json:"export_time"`
	Count      int      `json:"roi_count"`
	Regions    []Record `json:"rois"`
}

// Manager serializes ROI collections to disk.
type Manager struct {
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{logger: logger}
}

// RecordFor maps a region to its wire form.
func RecordFor(r *roi.Region) Record {
	c := r.Center()
	rec := Record{
		ID:       r.ID,
		Name:     r.Name,
		NodeName: r.NodeName,
		Type:     string(r.Type),
		X:        r.X,
		Y:        r.Y,
		Width:    r.Width,
		Height:   r.Height,
		Center:   [2]int{c.X, c.Y},
	}

	switch r.Type {
	case roi.TypeImage:
		rec.ImageName = r.ImageName
		rec.ImageAction = r.ImageAction
	case roi.TypeRegion:
		rec.Action = string(r.Action)
		switch r.Action {
		case roi.ActionClick:
			rec.ClickMode = r.Click.Mode
			rec.ClickCount = r.Click.Count
			rec.ClickIntervalMS = r.Click.IntervalMS
		case roi.ActionSwipe:
			rec.SwipeDirection = r.Swipe.Direction
			rec.SwipeSpeedPxS = r.Swipe.SpeedPxS
		}
	}
	return rec
}

// BuildDocument assembles the export payload for a set of regions.
func BuildDocument(regions []*roi.Region) Document {
	records := make([]Record, 0, len(regions))
	for _, r := range regions {
		records = append(records, RecordFor(r))
	}
	return Document{
		Version:    documentVersion,
		ExportTime: time.Now().Format(time.RFC3339),
		Count:      len(records),
		Regions:    records,
	}
}

// ExportJSON writes the collection to path as indented JSON.
func (m *Manager) ExportJSON(regions []*roi.Region, path string) error {
	doc := BuildDocument(regions)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal export document: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}

	m.logger.Info("Exported ROI collection",
		"path", path, "regions", doc.Count)
	return nil
}

// SnippetStyle selects the generated code dialect.
type SnippetStyle string

const (
	StyleAutoJS SnippetStyle = "autojs"
	StylePython SnippetStyle = "python"
	StyleRaw    SnippetStyle = "raw"
)

// Snippet renders a small automation snippet referencing each region by its
// bbox and center.
func Snippet(regions []*roi.Region, style SnippetStyle) string {
	var b strings.Builder
	switch style {
	case StyleAutoJS:
		for _, r := range regions {
			c := r.Center()
			fmt.Fprintf(&b, "// %s\n", r.Name)
			switch r.Action {
			case roi.ActionSwipe:
				fmt.Fprintf(&b, "swipe(%d, %d, %d, %d, %d);\n",
					r.X+r.Width/2, r.Y, r.X+r.Width/2, r.Bottom(),
					swipeDurationMS(r))
			default:
				fmt.Fprintf(&b, "click(%d, %d);\n", c.X, c.Y)
			}
		}
	case StylePython:
		b.WriteString("regions = {\n")
		for _, r := range regions {
			fmt.Fprintf(&b, "    %q: (%d, %d, %d, %d),\n",
				r.Name, r.X, r.Y, r.Width, r.Height)
		}
		b.WriteString("}\n")
	default:
		for _, r := range regions {
			c := r.Center()
			fmt.Fprintf(&b, "%s %d,%d %dx%d center=%d,%d\n",
				r.Name, r.X, r.Y, r.Width, r.Height, c.X, c.Y)
		}
	}
	return b.String()
}

func swipeDurationMS(r *roi.Region) int {
	if r.Swipe.SpeedPxS <= 0 {
		return 300
	}
	return r.Height * 1000 / r.Swipe.SpeedPxS
}
