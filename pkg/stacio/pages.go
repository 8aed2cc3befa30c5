package stacio

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

// Page is one FeatureCollection response of a paginated endpoint.
type Page struct {
	Href  string
	Items *stac.ItemCollection
}

// Pages fetches the FeatureCollection at href and follows its rel="next"
// links until a page has none. Next links with "method": "POST" are sent
// with their "body" as JSON. Pages are never cached.
func (o *IO) Pages(ctx context.Context, href string) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		next := stac.NewLink(stac.RelNext, href)
		seen := make(map[string]bool)

		for next != nil {
			current := next.Href()
			key := current + pageBodyKey(next)
			if seen[key] {
				return
			}
			seen[key] = true

			doc, err := o.fetchPage(ctx, next)
			if err != nil {
				yield(nil, err)
				return
			}
			ic, err := stac.ItemCollectionFromDict(doc)
			if err != nil {
				yield(nil, fmt.Errorf("error decoding response from %s: %w", current, err))
				return
			}
			if !yield(&Page{Href: current, Items: ic}, nil) {
				return
			}

			next = ic.GetLink(stac.RelNext)
			if next != nil {
				next.SetHref(resolveNext(next.Href(), current))
			}
		}
	}
}

// Features yields the items of every page in order.
func (o *IO) Features(ctx context.Context, href string) iter.Seq2[*stac.Item, error] {
	return func(yield func(*stac.Item, error) bool) {
		for page, err := range o.Pages(ctx, href) {
			if err != nil {
				yield(nil, err)
				return
			}
			for _, item := range page.Items.Items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

func (o *IO) fetchPage(ctx context.Context, l *stac.Link) (map[string]any, error) {
	href := l.Href()
	method, _ := l.AdditionalFields["method"].(string)
	if !strings.EqualFold(method, http.MethodPost) {
		loc, err := parseHref(href)
		if err != nil {
			return nil, transport(href, err)
		}
		if loc.scheme == schemeHTTP {
			data, err := o.getHTTP(ctx, href)
			if err != nil {
				return nil, err
			}
			return decode(href, data)
		}
		return o.Read(ctx, href)
	}

	body, err := json.Marshal(l.AdditionalFields["body"])
	if err != nil {
		return nil, fmt.Errorf("encode body of next link %s: %w", href, err)
	}
	resp, err := o.send(ctx, http.MethodPost, href, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decodeFrom(href, resp.Body)
}

// resolveNext resolves a next href against the page it was found on. Rooted
// paths on a remote page stay on that host.
func resolveNext(href, page string) string {
	if loc, err := parseHref(page); err == nil && loc.scheme == schemeHTTP {
		base, err := url.Parse(page)
		if err != nil {
			return href
		}
		ref, err := url.Parse(href)
		if err != nil {
			return href
		}
		return base.ResolveReference(ref).String()
	}
	return stac.AbsoluteHref(href, page)
}

func pageBodyKey(l *stac.Link) string {
	body, ok := l.AdditionalFields["body"]
	if !ok {
		return ""
	}
	data, _ := json.Marshal(body)
	return string(data)
}
