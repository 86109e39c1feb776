package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoRelationship is returned when a resource does not carry the requested relationship.
var ErrNoRelationship = errors.New("relationship not set")

// RelatedLink returns relationships.<name>.links.related, or "" when absent.
func (r Raw) RelatedLink(name string) string {
	return r.Get("relationships." + gjson.Escape(name) + ".links.related").String()
}

// relatedPath returns the API path of a relationship's target. The related
// link is preferred; a to-one relationship without one is addressed as
// /<type>/<id>.
func (c *Client) relatedPath(obj Raw, name string) (string, error) {
	if link := obj.RelatedLink(name); link != "" {
		u, err := url.Parse(link)
		if err != nil {
			return "", fmt.Errorf("invalid related link %q: %w", link, err)
		}
		path := u.Path
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
		return strings.TrimPrefix(path, BasePath), nil
	}

	if id := obj.RelationshipID(name); id != "" {
		typ := obj.Get("relationships." + gjson.Escape(name) + ".data.type").String()
		if typ != "" {
			return "/" + typ + "/" + url.PathEscape(id), nil
		}
	}

	return "", fmt.Errorf("%w: no '%s' relationship on %s %s", ErrNoRelationship, name,
		obj.Get("type").String(), obj.Get("id").String())
}

// GetRelated fetches what a relationship of obj points at and returns the
// response's data member: an object for to-one relationships, an array for
// to-many ones.
func (c *Client) GetRelated(ctx context.Context, obj Raw, name string) (Raw, error) {
	path, err := c.relatedPath(obj, name)
	if err != nil {
		return nil, err
	}

	doc, err := c.getDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	return doc.Data, nil
}
