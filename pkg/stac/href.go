package stac

import (
	"net/url"
	"path"
	"strings"
)

// Hrefs are handled textually with forward slashes on every platform, so a
// catalog written on one host resolves the same way on another.

// splitScheme returns the scheme of a URL-like href. Single letter schemes are
// rejected so Windows drive letters are not mistaken for URLs.
func splitScheme(href string) (string, bool) {
	i := strings.Index(href, "://")
	if i < 2 {
		return "", false
	}
	for _, r := range href[:i] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '+', r == '-', r == '.':
		default:
			return "", false
		}
	}
	return strings.ToLower(href[:i]), true
}

// IsAbsoluteHref reports whether href is a URL with a scheme or a rooted path.
func IsAbsoluteHref(href string) bool {
	if _, ok := splitScheme(href); ok {
		return true
	}
	return strings.HasPrefix(href, "/")
}

// AbsoluteHref resolves href against the directory of start. Absolute hrefs
// are returned unchanged, and so is href when start is empty.
func AbsoluteHref(href, start string) string {
	if href == "" || IsAbsoluteHref(href) || start == "" {
		return href
	}
	if _, ok := splitScheme(start); ok {
		base, err := url.Parse(start)
		if err != nil {
			return href
		}
		ref, err := url.Parse(href)
		if err != nil {
			return href
		}
		return base.ResolveReference(ref).String()
	}
	joined := path.Join(path.Dir(start), href)
	if strings.HasSuffix(href, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

// RelativeHref returns href expressed relative to the directory of start.
// The boolean is false when the two share no common root (different scheme or
// host, or start is not absolute); href is then returned unchanged. Hrefs that
// are already relative are returned as they are.
func RelativeHref(href, start string) (string, bool) {
	if !IsAbsoluteHref(href) {
		return href, true
	}
	if !IsAbsoluteHref(start) {
		return href, false
	}

	hrefScheme, hrefIsURL := splitScheme(href)
	startScheme, startIsURL := splitScheme(start)
	if hrefIsURL != startIsURL || hrefScheme != startScheme {
		return href, false
	}

	hrefPath, startPath, suffix := href, start, ""
	if hrefIsURL {
		hu, err := url.Parse(href)
		if err != nil {
			return href, false
		}
		su, err := url.Parse(start)
		if err != nil {
			return href, false
		}
		if !strings.EqualFold(hu.Host, su.Host) {
			return href, false
		}
		hrefPath, startPath = hu.Path, su.Path
		if hu.RawQuery != "" {
			suffix += "?" + hu.RawQuery
		}
		if hu.Fragment != "" {
			suffix += "#" + hu.Fragment
		}
		if hrefPath == "" {
			hrefPath = "/"
		}
		if startPath == "" {
			startPath = "/"
		}
	}

	return relativePath(hrefPath, path.Dir(startPath)) + suffix, true
}

func relativePath(target, dir string) string {
	trailing := strings.HasSuffix(target, "/") && target != "/"
	targetSegs := segments(path.Clean(target))
	dirSegs := segments(path.Clean(dir))

	common := 0
	for common < len(targetSegs) && common < len(dirSegs) && targetSegs[common] == dirSegs[common] {
		common++
	}

	var b strings.Builder
	ups := len(dirSegs) - common
	if ups == 0 {
		b.WriteString("./")
	}
	for i := 0; i < ups; i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(targetSegs[common:], "/"))
	if trailing {
		b.WriteString("/")
	}
	return b.String()
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

// hrefDir returns the directory portion of an href.
func hrefDir(href string) string {
	i := strings.LastIndex(href, "/")
	switch {
	case i < 0:
		return "."
	case i == 0:
		return "/"
	}
	dir := href[:i]
	if strings.HasSuffix(dir, ":/") {
		// "s3://bucket" style hrefs keep their authority.
		return href[:i]
	}
	return dir
}

// joinHref appends slash separated elements to a directory href.
func joinHref(dir string, elems ...string) string {
	tail := path.Join(elems...)
	if dir == "" || dir == "." {
		return tail
	}
	return strings.TrimRight(dir, "/") + "/" + strings.TrimLeft(tail, "/")
}
