// Package locale formats dates and counts for the site's configured locale.
package locale

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Default is the locale used when none is configured.
const Default = "zh_CN"

// Locale holds resolved formatting conventions for dates and numbers.
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// New creates a Locale from a POSIX locale string (e.g. "zh_CN.UTF-8")
// or BCP 47 tag (e.g. "zh-CN"). Empty or unparseable input yields Default.
func New(raw string) Locale {
	tag := parse(raw)
	if tag == language.Und {
		tag = parse(Default)
	}
	return Locale{
		tag:     tag,
		printer: message.NewPrinter(tag),
	}
}

func parse(raw string) language.Tag {
	if idx := strings.IndexByte(raw, '.'); idx != -1 {
		raw = raw[:idx]
	}
	raw = strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
	if raw == "" {
		return language.Und
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.Und
	}
	return tag
}

// Tag returns the resolved language tag.
func (l Locale) Tag() language.Tag {
	return l.tag
}

// Lang returns the tag for the html lang attribute, e.g. "zh-CN".
func (l Locale) Lang() string {
	return l.tag.String()
}

// OpenGraph returns the locale in og:locale form, e.g. "zh_CN".
func (l Locale) OpenGraph() string {
	base, _ := l.tag.Base()
	region, conf := l.tag.Region()
	if conf == language.No {
		return base.String()
	}
	return base.String() + "_" + region.String()
}

// FormatDate formats t as a locale-appropriate date.
func (l Locale) FormatDate(t time.Time) string {
	return t.Format(l.layout(dateLayouts, dateLayoutsByLang, layoutMDY))
}

// FormatMonth formats the month of t for archive headings.
func (l Locale) FormatMonth(t time.Time) string {
	return t.Format(l.layout(nil, monthLayoutsByLang, layoutMonth))
}

// FormatCount formats n with locale-appropriate grouping.
func (l Locale) FormatCount(n int) string {
	return l.printer.Sprint(number.Decimal(n))
}

func (l Locale) layout(byRegion, byLang map[string]string, fallback string) string {
	if region, conf := l.tag.Region(); conf != language.No {
		if layout, ok := byRegion[region.String()]; ok {
			return layout
		}
	}
	base, _ := l.tag.Base()
	if layout, ok := byLang[base.String()]; ok {
		return layout
	}
	return fallback
}

// Layouts use Go's reference time (Mon Jan 2 15:04:05 MST 2006).
const (
	layoutMDY    = "Jan 2, 2006"
	layoutDMY    = "2 Jan 2006"
	layoutYMD    = "2006-01-02"
	layoutDMYDot = "2. Jan 2006"
	layoutCJK    = "2006年1月2日"

	layoutMonth    = "January 2006"
	layoutMonthCJK = "2006年1月"
	layoutMonthKO  = "2006년 1월"
)

var dateLayouts = map[string]string{
	"US": layoutMDY,
	"GB": layoutDMY,
	"AU": layoutDMY,
	"IN": layoutDMY,
	"FR": layoutDMY,
	"ES": layoutDMY,
	"IT": layoutDMY,
	"BR": layoutDMY,
	"NL": layoutDMY,
	"RU": layoutDMY,
	"DE": layoutDMYDot,
	"AT": layoutDMYDot,
	"CH": layoutDMYDot,
	"CN": layoutCJK,
	"TW": layoutCJK,
	"HK": layoutCJK,
	"JP": layoutCJK,
	"KR": layoutYMD,
	"CA": layoutYMD,
}

var dateLayoutsByLang = map[string]string{
	"en": layoutMDY,
	"de": layoutDMYDot,
	"fr": layoutDMY,
	"es": layoutDMY,
	"it": layoutDMY,
	"ru": layoutDMY,
	"ja": layoutCJK,
	"zh": layoutCJK,
	"ko": layoutYMD,
}

var monthLayoutsByLang = map[string]string{
	"zh": layoutMonthCJK,
	"ja": layoutMonthCJK,
	"ko": layoutMonthKO,
}
