// Copyright 2026 Veldt Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package drive

import (
	"context"
	"fmt"
	"io"

	drivev3 "google.golang.org/api/drive/v3"
)

// serviceFiles adapts *drive.Service to the filesAPI interface.
type serviceFiles struct {
	svc *drivev3.Service
}

func (s *serviceFiles) List(ctx context.Context, query, pageToken string) (*drivev3.FileList, error) {
	call := s.svc.Files.List().
		Q(query).
		PageSize(listPageSize).
		Fields(listFields).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (s *serviceFiles) ExportText(ctx context.Context, fileID, mimeType string) (string, error) {
	resp, err := s.svc.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	return string(data), nil
}

func (s *serviceFiles) Download(ctx context.Context, fileID string) (string, error) {
	resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	return string(data), nil
}
