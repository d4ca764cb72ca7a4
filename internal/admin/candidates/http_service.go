package candidates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finitefield.org/recruit-admin/internal/admin/backend"
)

// HTTPService implements Service backed by the ATS candidate endpoints.
type HTTPService struct {
	client *backend.Client
}

// NewHTTPService constructs a candidate service sharing the backend client.
func NewHTTPService(client *backend.Client) (*HTTPService, error) {
	if client == nil {
		return nil, errors.New("candidates: backend client is required")
	}
	return &HTTPService{client: client}, nil
}

// List retrieves one page of candidates.
func (s *HTTPService) List(ctx context.Context, token string, query ListQuery) (ListResult, error) {
	params := url.Values{}
	if q := strings.TrimSpace(query.Search); q != "" {
		params.Set("search", q)
	}
	if stage := strings.TrimSpace(query.Stage); stage != "" {
		params.Set("stage", stage)
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.Size > 0 {
		params.Set("size", strconv.Itoa(query.Size))
	}
	endpoint := "/candidate"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result ListResult
	if err := s.client.Do(ctx, http.MethodGet, endpoint, token, nil, &result); err != nil {
		return ListResult{}, fmt.Errorf("candidates: list: %w", err)
	}
	return result, nil
}

// Get retrieves a single candidate.
func (s *HTTPService) Get(ctx context.Context, token string, id int64) (Candidate, error) {
	var candidate Candidate
	if err := s.client.Do(ctx, http.MethodGet, fmt.Sprintf("/candidate/%d", id), token, nil, &candidate); err != nil {
		if backend.IsNotFound(err) {
			return Candidate{}, ErrCandidateNotFound
		}
		return Candidate{}, fmt.Errorf("candidates: get %d: %w", id, err)
	}
	return candidate, nil
}

// UpdateAttribute sends the attribute as a JSON-serialised string, the format the
// candidate endpoint stores list attributes in.
func (s *HTTPService) UpdateAttribute(ctx context.Context, token string, id int64, attribute string, value any) error {
	if !ValidAttribute(attribute) {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	body, err := EncodeAttribute(value)
	if err != nil {
		return err
	}
	payload := map[string]string{attribute: body}
	if err := s.client.Do(ctx, http.MethodPut, fmt.Sprintf("/candidate/%d", id), token, payload, nil); err != nil {
		return fmt.Errorf("candidates: update %s: %w", attribute, err)
	}
	return nil
}

// UpdateAssignment sends a single-field job assignment change.
func (s *HTTPService) UpdateAssignment(ctx context.Context, token string, update AssignmentUpdate) error {
	if err := s.client.Do(ctx, http.MethodPut, "/candidate/job-assignment/update", token, update, nil); err != nil {
		return fmt.Errorf("candidates: update assignment %d/%d: %w", update.EntityID, update.SubID, err)
	}
	return nil
}

// EncodeAttribute serialises a list value into the string form the backend expects.
// A nil slice is encoded as an empty list.
func EncodeAttribute(value any) (string, error) {
	if value == nil {
		return "[]", nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("candidates: encode attribute: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}
