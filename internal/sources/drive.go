package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"necromancer/internal/core"
)

const driveQuery = "(mimeType='application/pdf' or mimeType='application/vnd.google-apps.document' or " +
	"mimeType='application/vnd.google-apps.presentation' or mimeType contains 'image/' or " +
	"name contains 'project' or name contains 'portfolio') and trashed = false"

const driveFields = "files(id,name,mimeType,createdTime,modifiedTime,webViewLink,thumbnailLink,description)"

// DriveSource lists documents, decks, PDFs and images from Google Drive.
type DriveSource struct {
	enabled  bool
	auth     GoogleAuth
	maxFiles int
	options  []option.ClientOption
}

// NewDriveSource creates a Google Drive source.
func NewDriveSource(enabled bool, auth GoogleAuth, maxFiles int) *DriveSource {
	if maxFiles <= 0 {
		maxFiles = 50
	}
	return &DriveSource{enabled: enabled, auth: auth, maxFiles: maxFiles}
}

func (s *DriveSource) Name() core.Source { return core.SourceDrive }

func (s *DriveSource) Ready() error {
	if !s.enabled {
		return fmt.Errorf("%w: disabled", ErrNotConfigured)
	}
	if s.options != nil {
		return nil
	}
	return s.auth.Ready()
}

func (s *DriveSource) Scrape(ctx context.Context) ([]core.Project, error) {
	opts := s.options
	if opts == nil {
		var err error
		if opts, err = s.auth.ClientOptions(ctx, DriveScope); err != nil {
			return nil, err
		}
	}

	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}

	list, err := svc.Files.List().
		Q(driveQuery).
		PageSize(int64(s.maxFiles)).
		Fields(googleapi.Field(driveFields)).
		OrderBy("modifiedTime desc").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list drive files: %w", err)
	}

	projects := make([]core.Project, 0, len(list.Files))
	for i, f := range list.Files {
		if i >= s.maxFiles {
			break
		}
		projects = append(projects, fileToProject(f))
	}
	return projects, nil
}

func fileToProject(f *drive.File) core.Project {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "Untitled"
	}
	kind := mimeSubtype(f.MimeType)

	description := strings.TrimSpace(f.Description)
	if description == "" || description == name {
		description = fmt.Sprintf("A %s file from Google Drive", kind)
	}

	p := core.Project{
		ID:          f.Id,
		Title:       name,
		Description: description,
		Tags:        []string{"google-drive", kind},
		Source:      core.SourceDrive,
		Date:        driveTime(f.CreatedTime, f.ModifiedTime),
		Metadata: map[string]string{
			"file_id":   f.Id,
			"mime_type": f.MimeType,
		},
	}
	if f.WebViewLink != "" {
		p.Links = []string{f.WebViewLink}
	}
	if f.ThumbnailLink != "" {
		p.Images = []string{f.ThumbnailLink}
	}
	return p
}

// mimeSubtype turns "application/vnd.google-apps.document" into "document".
func mimeSubtype(mimeType string) string {
	sub := mimeType
	if i := strings.LastIndex(sub, "/"); i >= 0 {
		sub = sub[i+1:]
	}
	if i := strings.LastIndex(sub, "."); i >= 0 {
		sub = sub[i+1:]
	}
	if sub == "" {
		return "file"
	}
	return sub
}

func driveTime(values ...string) time.Time {
	for _, v := range values {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
