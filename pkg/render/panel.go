package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/sudorandom/dc-globe/pkg/globe"
)

var (
	ColorPanel       = color.RGBA{15, 23, 42, 235}
	ColorPanelBorder = color.RGBA{202, 49, 254, 255}
	ColorRowActive   = color.RGBA{41, 171, 226, 60}
	ColorLabel       = color.RGBA{148, 163, 184, 255}
)

const (
	panelPadding   = 16.0
	headerHeight   = 64.0
	memberHeight   = 32.0
	detailHeight   = 22.0
	titleFontSize  = 20.0
	bodyFontSize   = 14.0
	maxNameLen     = 34
	fadePerSecond  = 1 / 0.15
	showStartScale = 0.95
)

var errNoMembers = errors.New("popup content has no members")

type rowKind int

const (
	rowMember rowKind = iota
	rowDetail
)

type panelRow struct {
	kind   rowKind
	member int
	y, h   float64 // relative to the panel origin
	label  string
	value  string
	active bool
}

// Panel draws the region info popup. It implements globe.PopupView and
// never changes popup state itself; member clicks are reported back through
// MemberAt.
type Panel struct {
	Size globe.Size

	regular *text.GoTextFaceSource
	bold    *text.GoTextFaceSource
	fontErr error

	content *globe.PopupContent
	rows    []panelRow
	at      globe.Point
	phase   globe.Phase
	alpha   float64
}

func NewPanel(size globe.Size) *Panel {
	p := &Panel{Size: size}
	var err1, err2 error
	p.regular, err1 = text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	p.bold, err2 = text.NewGoTextFaceSource(bytes.NewReader(gobold.TTF))
	p.fontErr = errors.Join(err1, err2)
	return p
}

func (p *Panel) RenderPopup(c globe.PopupContent) error {
	if p.fontErr != nil {
		return fmt.Errorf("popup fonts: %w", p.fontErr)
	}
	if len(c.Members) == 0 {
		return errNoMembers
	}
	p.content = &c
	p.rows = layoutRows(c)
	return nil
}

func (p *Panel) PlacePopup(at globe.Point) { p.at = at }

func (p *Panel) SetPopupPhase(phase globe.Phase) {
	p.phase = phase
	if phase == globe.PhaseShowing {
		p.alpha = 0
	}
}

func (p *Panel) ClearPopup() {
	p.content = nil
	p.rows = nil
	p.phase = globe.PhaseHidden
	p.alpha = 0
}

func (p *Panel) Visible() bool {
	return p.content != nil && p.phase != globe.PhaseHidden
}

// Step advances the fade toward the target of the current phase.
func (p *Panel) Step(dt time.Duration) {
	target := 0.0
	if p.phase == globe.PhaseShowing || p.phase == globe.PhaseVisible {
		target = 1
	}
	step := dt.Seconds() * fadePerSecond
	if p.alpha < target {
		p.alpha = min(p.alpha+step, target)
	} else {
		p.alpha = max(p.alpha-step, target)
	}
}

// MemberAt returns the index of the facility header under the screen point
// in a multi-facility popup, or -1.
func (p *Panel) MemberAt(x, y float64) int {
	if p.content == nil || !p.content.Multiple {
		return -1
	}
	lx, ly := x-p.at.X, y-p.at.Y
	if lx < 0 || lx > p.Size.W {
		return -1
	}
	for _, r := range p.rows {
		if r.kind == rowMember && ly >= r.y && ly < r.y+r.h && r.y+r.h <= p.Size.H {
			return r.member
		}
	}
	return -1
}

// layoutRows stacks facility headers and the detail rows of the expanded
// facility below the region header.
func layoutRows(c globe.PopupContent) []panelRow {
	var rows []panelRow
	y := headerHeight
	for _, m := range c.Members {
		rows = append(rows, panelRow{
			kind:   rowMember,
			member: m.Index,
			y:      y,
			h:      memberHeight,
			label:  truncate(m.Name, maxNameLen),
			active: m.Expanded,
		})
		y += memberHeight
		for _, d := range m.Details {
			rows = append(rows, panelRow{
				kind:   rowDetail,
				member: m.Index,
				y:      y,
				h:      detailHeight,
				label:  d.Label,
				value:  d.Value,
			})
			y += detailHeight
		}
	}
	return rows
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (p *Panel) Draw(screen *ebiten.Image) {
	if p.content == nil || p.alpha <= 0 {
		return
	}
	a := float32(p.alpha)
	scale := showStartScale + (1-showStartScale)*p.alpha
	w, h := p.Size.W*scale, p.Size.H*scale
	x := p.at.X + (p.Size.W-w)/2
	y := p.at.Y + (p.Size.H-h)/2

	vector.DrawFilledRect(screen, float32(x), float32(y), float32(w), float32(h), fade(ColorPanel, a), false)
	vector.StrokeRect(screen, float32(x), float32(y), float32(w), float32(h), 1, fade(ColorPanelBorder, a), false)
	vector.DrawFilledRect(screen, float32(x), float32(y), 4, float32(headerHeight), fade(ColorPanelBorder, a), false)

	title := &text.GoTextFace{Source: p.bold, Size: titleFontSize}
	body := &text.GoTextFace{Source: p.regular, Size: bodyFontSize}
	bold := &text.GoTextFace{Source: p.bold, Size: bodyFontSize}

	badge := strings.ToUpper(p.content.CountryCode)
	p.drawText(screen, badge, bold, x+panelPadding, y+12, ColorLabel, a)
	bw, _ := text.Measure(badge, bold, 0)
	p.drawText(screen, p.content.CountryName, title, x+panelPadding+bw+10, y+8, color.White, a)
	p.drawText(screen, p.content.RegionDisplay, body, x+panelPadding, y+36, ColorLabel, a)

	for _, r := range p.rows {
		if r.y+r.h > h {
			break
		}
		ry := y + r.y
		switch r.kind {
		case rowMember:
			if r.active && p.content.Multiple {
				vector.DrawFilledRect(screen, float32(x+1), float32(ry), float32(w-2), float32(r.h), fade(ColorRowActive, a), false)
			}
			marker := ""
			if p.content.Multiple {
				marker = "+ "
				if r.active {
					marker = "- "
				}
			}
			p.drawText(screen, marker+r.label, bold, x+panelPadding, ry+8, color.White, a)
		case rowDetail:
			p.drawText(screen, r.label, body, x+panelPadding*1.5, ry+4, ColorLabel, a)
			vw, _ := text.Measure(r.value, body, 0)
			p.drawText(screen, r.value, body, x+w-panelPadding-vw, ry+4, color.White, a)
		}
	}
}

func (p *Panel) drawText(screen *ebiten.Image, s string, face *text.GoTextFace, x, y float64, c color.Color, alpha float32) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	op.ColorScale.ScaleAlpha(alpha)
	text.Draw(screen, s, face, op)
}

func fade(c color.RGBA, a float32) color.RGBA {
	return color.RGBA{
		R: uint8(float32(c.R) * a),
		G: uint8(float32(c.G) * a),
		B: uint8(float32(c.B) * a),
		A: uint8(float32(c.A) * a),
	}
}
