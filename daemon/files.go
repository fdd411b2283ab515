package daemon

import (
	"context"
	"net/http"
	"net/url"

	"skypanel/model"
)

// FileEntry is one entry from a volume directory listing.
type FileEntry struct {
	Name      string `json:"name"`
	Directory bool   `json:"isDirectory"`
	Size      int64  `json:"size"`
	Editable  bool   `json:"isEditable"`
	Extension string `json:"extension,omitempty"`
}

// ListFiles lists a volume directory on the node.
func (c *Client) ListFiles(ctx context.Context, node *model.Node, volumeID, subPath string) ([]FileEntry, error) {
	var resp struct {
		Files []FileEntry `json:"files"`
	}
	p := "/fs/" + volumeID + "/files" + pathQuery(subPath)
	if err := c.do(ctx, node, "files.list", http.MethodGet, p, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// EditFile writes file content on a volume.
func (c *Client) EditFile(ctx context.Context, node *model.Node, volumeID, filename, content, subPath string) error {
	body := map[string]string{"content": content}
	p := "/fs/" + volumeID + "/files/edit/" + url.PathEscape(filename) + pathQuery(subPath)
	return c.do(ctx, node, "files.edit", http.MethodPost, p, body, nil)
}

// UnzipFile extracts an archive in place on a volume.
func (c *Client) UnzipFile(ctx context.Context, node *model.Node, volumeID, filename, subPath string) error {
	p := "/fs/" + volumeID + "/files/unzip/" + url.PathEscape(filename) + pathQuery(subPath)
	return c.do(ctx, node, "files.unzip", http.MethodPost, p, nil, nil)
}

// InstallPlugin has the node download a plugin archive from
// downloadURL and drop it on the volume under name.
func (c *Client) InstallPlugin(ctx context.Context, node *model.Node, volumeID, downloadURL, name string) error {
	p := "/fs/" + volumeID + "/files/plugin/" + url.PathEscape(downloadURL) + "/" + url.PathEscape(name)
	return c.do(ctx, node, "plugin.install", http.MethodPost, p, nil, nil)
}

func pathQuery(subPath string) string {
	if subPath == "" {
		return ""
	}
	return "?path=" + url.QueryEscape(subPath)
}
