// Package openapi loads the platform's OpenAPI contracts and indexes their
// operations so suites can check requests and observed responses against the
// published schemas.
package openapi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Source describes one service contract to load.
type Source struct {
	ServiceID string
	BaseURL   string
	SpecPath  string
}

// Operation holds a resolved contract operation.
type Operation struct {
	ServiceID    string
	OperationID  string
	Method       string
	PathTemplate string
	Parameters   []*openapi3.Parameter
	RequestBody  *openapi3.RequestBody
	Responses    *openapi3.Responses
	BaseURL      string
}

// ValidationError describes one contract violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Index holds contract operations keyed by service and operation ID.
type Index struct {
	operations map[string]Operation
	byService  map[string][]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		operations: make(map[string]Operation),
		byService:  make(map[string][]string),
	}
}

func key(serviceID, operationID string) string {
	return serviceID + ":" + operationID
}

// Load parses and validates the given contracts and indexes every operation
// that carries an operationId.
func (idx *Index) Load(sources []Source) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	for _, src := range sources {
		doc, err := loader.LoadFromFile(src.SpecPath)
		if err != nil {
			return fmt.Errorf("openapi: loading %s (%s): %w", src.ServiceID, src.SpecPath, err)
		}
		if err := doc.Validate(context.Background()); err != nil {
			return fmt.Errorf("openapi: validating %s: %w", src.ServiceID, err)
		}

		baseURL := src.BaseURL
		if baseURL == "" && len(doc.Servers) > 0 {
			baseURL = doc.Servers[0].URL
		}

		for path, pathItem := range doc.Paths.Map() {
			for method, op := range pathItem.Operations() {
				if op.OperationID == "" {
					continue
				}

				params := make([]*openapi3.Parameter, 0)
				for _, ref := range pathItem.Parameters {
					if ref.Value != nil {
						params = append(params, ref.Value)
					}
				}
				for _, ref := range op.Parameters {
					if ref.Value != nil {
						params = append(params, ref.Value)
					}
				}

				var reqBody *openapi3.RequestBody
				if op.RequestBody != nil && op.RequestBody.Value != nil {
					reqBody = op.RequestBody.Value
				}

				idx.operations[key(src.ServiceID, op.OperationID)] = Operation{
					ServiceID:    src.ServiceID,
					OperationID:  op.OperationID,
					Method:       method,
					PathTemplate: path,
					Parameters:   params,
					RequestBody:  reqBody,
					Responses:    op.Responses,
					BaseURL:      baseURL,
				}
				idx.byService[src.ServiceID] = append(idx.byService[src.ServiceID], op.OperationID)
			}
		}
	}
	return nil
}

// Get returns the operation for the given service and operation ID.
func (idx *Index) Get(serviceID, operationID string) (Operation, bool) {
	op, ok := idx.operations[key(serviceID, operationID)]
	return op, ok
}

// OperationIDs returns all operation IDs for the given service, sorted.
func (idx *Index) OperationIDs(serviceID string) []string {
	ids := make([]string, len(idx.byService[serviceID]))
	copy(ids, idx.byService[serviceID])
	sort.Strings(ids)
	return ids
}

// ValidateRequest checks a JSON request body against the operation's schema.
// It returns nil when the body satisfies the contract.
func (idx *Index) ValidateRequest(serviceID, operationID string, body map[string]any) []ValidationError {
	op, ok := idx.operations[key(serviceID, operationID)]
	if !ok {
		return []ValidationError{{Message: fmt.Sprintf("operation %s/%s not found", serviceID, operationID)}}
	}
	if op.RequestBody == nil {
		return nil
	}

	ct := op.RequestBody.Content.Get("application/json")
	if ct == nil || ct.Schema == nil || ct.Schema.Value == nil {
		return nil
	}

	var errs []ValidationError
	for _, req := range ct.Schema.Value.Required {
		if _, exists := body[req]; !exists {
			errs = append(errs, ValidationError{
				Field:   req,
				Message: fmt.Sprintf("%s is required", req),
			})
		}
	}
	return errs
}

// DeclaresStatus reports whether the operation declares the given response
// status code in its contract.
func (idx *Index) DeclaresStatus(serviceID, operationID string, statusCode int) bool {
	op, ok := idx.operations[key(serviceID, operationID)]
	if !ok || op.Responses == nil {
		return false
	}
	code := fmt.Sprintf("%d", statusCode)
	for status := range op.Responses.Map() {
		if status == code || status == "default" {
			return true
		}
		// Range forms like "2XX".
		if len(status) == 3 && strings.HasSuffix(status, "XX") && status[0] == code[0] {
			return true
		}
	}
	return false
}
