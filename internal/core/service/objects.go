package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

// Sort settings accepted by ObjectService.Page.
const (
	SortByID   = "id"
	SortByName = "name"
	SortAsc    = "ASC"
	SortDesc   = "DESC"
)

// MaxPageSize caps PageRequest.PageSize.
const MaxPageSize = 1000

// PageRequest selects one page of the object catalog. Page is zero-based.
type PageRequest struct {
	PageSize     int
	Page         int
	TextSearch   string
	SortProperty string
	SortOrder    string
}

// ObjectService serves the LwM2M object model catalog: the built-in core
// objects plus model files found in a directory.
type ObjectService struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	objects map[int]domain.ObjectLwM2M
}

// NewObjectService loads the catalog. An empty dir serves only built-ins.
func NewObjectService(dir string, logger *slog.Logger) (*ObjectService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ObjectService{dir: dir, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the models directory.
func (s *ObjectService) Dir() string {
	return s.dir
}

// Reload re-reads the models directory. The previous catalog is kept when
// any file fails to load.
func (s *ObjectService) Reload() error {
	objects := make(map[int]domain.ObjectLwM2M)
	for _, o := range BuiltinObjects() {
		objects[o.ID] = o
	}

	if s.dir != "" {
		loaded, err := LoadModelDir(s.dir)
		if err != nil {
			return err
		}
		for _, o := range loaded {
			objects[o.ID] = o
		}
	}

	s.mu.Lock()
	s.objects = objects
	s.mu.Unlock()

	s.logger.Info("object models loaded", "dir", s.dir, "count", len(objects))
	return nil
}

// Count returns the number of objects in the catalog.
func (s *ObjectService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// GetByIDs returns the requested objects in request order. Unknown ids are
// skipped.
func (s *ObjectService) GetByIDs(ids []int) []domain.ObjectLwM2M {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ObjectLwM2M, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if o, ok := s.objects[id]; ok && !seen[id] {
			out = append(out, o)
			seen[id] = true
		}
	}
	return out
}

// Get returns one object.
func (s *ObjectService) Get(id int) (domain.ObjectLwM2M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[id]
	if !ok {
		return domain.ObjectLwM2M{}, domain.ErrObjectNotFound.WithDetails(strconv.Itoa(id))
	}
	return o, nil
}

// Page filters, sorts and slices the catalog.
func (s *ObjectService) Page(req PageRequest) (*domain.PageData[domain.ObjectLwM2M], error) {
	if req.PageSize <= 0 || req.PageSize > MaxPageSize {
		return nil, domain.ErrInvalidArgument.WithDetails(fmt.Sprintf("pageSize must be between 1 and %d", MaxPageSize))
	}
	if req.Page < 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("page must not be negative")
	}

	sortBy := strings.ToLower(req.SortProperty)
	if sortBy == "" {
		sortBy = SortByID
	}
	if sortBy != SortByID && sortBy != SortByName {
		return nil, domain.ErrInvalidArgument.WithDetails("sortProperty must be id or name")
	}
	order := strings.ToUpper(req.SortOrder)
	if order == "" {
		order = SortAsc
	}
	if order != SortAsc && order != SortDesc {
		return nil, domain.ErrInvalidArgument.WithDetails("sortOrder must be ASC or DESC")
	}

	search := strings.ToLower(strings.TrimSpace(req.TextSearch))

	s.mu.RLock()
	matched := make([]domain.ObjectLwM2M, 0, len(s.objects))
	for _, o := range s.objects {
		if search == "" || strings.Contains(strings.ToLower(o.Name), search) || strconv.Itoa(o.ID) == search {
			matched = append(matched, o)
		}
	}
	s.mu.RUnlock()

	less := func(a, b domain.ObjectLwM2M) bool {
		if sortBy == SortByName && a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	}
	sort.Slice(matched, func(i, j int) bool {
		if order == SortDesc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	total := len(matched)
	pages := (total + req.PageSize - 1) / req.PageSize
	start := req.Page * req.PageSize
	end := start + req.PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return &domain.PageData[domain.ObjectLwM2M]{
		Data:          matched[start:end],
		TotalPages:    pages,
		TotalElements: total,
		HasNext:       end < total,
	}, nil
}

// ParseObjectIDs parses a comma separated id list such as "3,5,19".
func ParseObjectIDs(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.Atoi(p)
		if err != nil || id < domain.InstanceIDMin || id > domain.InstanceIDMax {
			return nil, domain.ErrInvalidArgument.WithDetails("object id " + p)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, domain.ErrMissingArgument.WithDetails("object ids")
	}
	return ids, nil
}

// ============================================================================
// Model files
// ============================================================================

// IsModelFile reports whether path has a model file extension.
func IsModelFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadModelDir reads every model file in dir (not recursive).
func LoadModelDir(dir string) ([]domain.ObjectLwM2M, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, domain.ErrObjectModelInvalid.WithDetails("read " + dir).WithCause(err)
	}

	var out []domain.ObjectLwM2M
	for _, e := range entries {
		if e.IsDir() || !IsModelFile(e.Name()) {
			continue
		}
		objs, err := LoadModelFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, objs...)
	}
	return out, nil
}

// LoadModelFile reads one YAML or JSON file holding an object or a list of
// objects.
func LoadModelFile(path string) ([]domain.ObjectLwM2M, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrObjectModelInvalid.WithDetails(path).WithCause(err)
	}
	objs, err := ParseModels(raw)
	if err != nil {
		return nil, domain.ErrObjectModelInvalid.WithDetails(path + ": " + err.Error()).WithCause(err)
	}
	return objs, nil
}

// ParseModels decodes one object or a list of objects. JSON input is
// accepted as YAML.
func ParseModels(raw []byte) ([]domain.ObjectLwM2M, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 || len(node.Content) == 0 {
		return nil, nil
	}

	var objs []domain.ObjectLwM2M
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&objs); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var o domain.ObjectLwM2M
		if err := root.Decode(&o); err != nil {
			return nil, err
		}
		objs = append(objs, o)
	default:
		return nil, fmt.Errorf("expected an object or a list of objects")
	}

	for i := range objs {
		if err := objs[i].Check(); err != nil {
			return nil, err
		}
	}
	return objs, nil
}
