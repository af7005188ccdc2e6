package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DocumentID is a Backlog document identifier. Classic documents use numeric
// ids, Document (Beta) uses opaque strings, so both JSON forms are accepted.
type DocumentID string

func (id *DocumentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DocumentID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("document id must be a number or string: %w", err)
	}
	canonical, ok := positiveInteger(n)
	if !ok {
		return fmt.Errorf("document id %s must be a positive integer", n)
	}
	*id = DocumentID(canonical)
	return nil
}

// positiveInteger renders n without exponent or fraction, e.g. 1e3 and 12.0
// become "1000" and "12".
func positiveInteger(n json.Number) (string, bool) {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), i > 0
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f <= 0 || f > math.MaxInt64 {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

func (id DocumentID) String() string {
	return string(id)
}

type User struct {
	ID          int64  `json:"id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	RoleType    int    `json:"roleType"`
	MailAddress string `json:"mailAddress,omitempty"`
}

type Attachment struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type Star struct {
	ID        int64   `json:"id"`
	Comment   *string `json:"comment,omitempty"`
	Created   string  `json:"created"`
	Presenter User    `json:"presenter"`
	Receiver  User    `json:"receiver"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Document is a Backlog document with its content resolved.
// Content is always set once a Document leaves the client; it may be "".
type Document struct {
	ID          DocumentID   `json:"id"`
	ProjectID   int64        `json:"projectId"`
	Name        string       `json:"name"`
	Content     string       `json:"content"`
	FolderID    *int64       `json:"folderId,omitempty"`
	ParentID    *DocumentID  `json:"parentId,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	Share       *int         `json:"share,omitempty"`
	Draft       *bool        `json:"draft,omitempty"`
	Archive     *bool        `json:"archive,omitempty"`
	CreatedUser *User        `json:"createdUser,omitempty"`
	UpdatedUser *User        `json:"updatedUser,omitempty"`
	Created     string       `json:"created,omitempty"`
	Updated     string       `json:"updated,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Stars       []Star       `json:"stars,omitempty"`
}

// DocumentChild is the summary returned by the children endpoint.
type DocumentChild struct {
	ID           DocumentID  `json:"id"`
	Name         string      `json:"name"`
	ProjectID    *int64      `json:"projectId,omitempty"`
	ParentID     *DocumentID `json:"parentId,omitempty"`
	HasChildren  *bool       `json:"hasChildren,omitempty"` // nil = unknown, treated as true
	DisplayOrder *int        `json:"displayOrder,omitempty"`
}

// Order returns the display order with missing values treated as 0.
func (c DocumentChild) Order() int {
	if c.DisplayOrder == nil {
		return 0
	}
	return *c.DisplayOrder
}

// MayHaveChildren reports whether the children endpoint is worth calling.
func (c DocumentChild) MayHaveChildren() bool {
	return c.HasChildren == nil || *c.HasChildren
}

// DocumentTreeNode is a document with its descendants, children ordered by display order.
type DocumentTreeNode struct {
	Document
	Children []DocumentTreeNode `json:"children"`
}

// Count returns the number of documents in the subtree, including the node itself.
func (n DocumentTreeNode) Count() int {
	total := 1
	for _, child := range n.Children {
		total += child.Count()
	}
	return total
}

// Walk visits the subtree depth first. path holds the names from the root
// down to and including the visited node.
func (n DocumentTreeNode) Walk(fn func(node DocumentTreeNode, path []string)) {
	n.walk(nil, fn)
}

func (n DocumentTreeNode) walk(parent []string, fn func(DocumentTreeNode, []string)) {
	path := make([]string, len(parent), len(parent)+1)
	copy(path, parent)
	path = append(path, n.Name)

	fn(n, path)
	for _, child := range n.Children {
		child.walk(path, fn)
	}
}
