package service

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestBuiltinObjects(t *testing.T) {
	objs := BuiltinObjects()
	if len(objs) != 8 {
		t.Fatalf("len = %d, want 8", len(objs))
	}
	for i, o := range objs {
		if o.ID != i {
			t.Errorf("objs[%d].ID = %d", i, o.ID)
		}
		if err := o.Check(); err != nil {
			t.Errorf("object %d: %v", o.ID, err)
		}
	}
	if objs[3].Name != "Device" || objs[3].Multiple {
		t.Errorf("device object = %+v", objs[3])
	}
}

func TestObjectService_Page(t *testing.T) {
	svc, err := NewObjectService("", nil)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		req       PageRequest
		wantIDs   []int
		wantTotal int
		wantPages int
		wantNext  bool
	}{
		{"first page", PageRequest{PageSize: 3}, []int{0, 1, 2}, 8, 3, true},
		{"last page", PageRequest{PageSize: 3, Page: 2}, []int{6, 7}, 8, 3, false},
		{"beyond last page", PageRequest{PageSize: 3, Page: 5}, []int{}, 8, 3, false},
		{"desc", PageRequest{PageSize: 2, SortOrder: "desc"}, []int{7, 6}, 8, 4, true},
		{"by name", PageRequest{PageSize: 2, SortProperty: "name"}, []int{4, 7}, 8, 4, true},
		{"search name", PageRequest{PageSize: 10, TextSearch: "CONNECTIVITY"}, []int{4, 7}, 2, 1, false},
		{"search id", PageRequest{PageSize: 10, TextSearch: "5"}, []int{5}, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Page(tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if len(page.Data) != len(tt.wantIDs) {
				t.Fatalf("len(Data) = %d, want %d", len(page.Data), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if page.Data[i].ID != id {
					t.Errorf("Data[%d].ID = %d, want %d", i, page.Data[i].ID, id)
				}
			}
			if page.TotalElements != tt.wantTotal || page.TotalPages != tt.wantPages || page.HasNext != tt.wantNext {
				t.Errorf("total=%d pages=%d next=%v", page.TotalElements, page.TotalPages, page.HasNext)
			}
		})
	}

	for _, bad := range []PageRequest{
		{PageSize: 0},
		{PageSize: 1, Page: -1},
		{PageSize: 1, SortProperty: "mandatory"},
		{PageSize: 1, SortOrder: "UP"},
	} {
		if _, err := svc.Page(bad); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("Page(%+v) error = %v", bad, err)
		}
	}
}

func TestObjectService_GetByIDs(t *testing.T) {
	svc, _ := NewObjectService("", nil)
	got := svc.GetByIDs([]int{5, 3, 999, 3})
	if len(got) != 2 || got[0].ID != 5 || got[1].ID != 3 {
		t.Errorf("GetByIDs() = %v", got)
	}
	if _, err := svc.Get(999); !errors.Is(err, domain.ErrObjectNotFound) {
		t.Errorf("Get(999) error = %v", err)
	}
}

func TestObjectService_ModelDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "temperature.yaml", `
id: 3303
name: Temperature
multiple: true
instances:
  - id: 0
    resources:
      - id: 5700
        name: Sensor Value
`)
	writeFile(t, dir, "more.json", `[{"id":3304,"name":"Humidity","multiple":true,"instances":[]}]`)
	writeFile(t, dir, "README.txt", "ignored")

	svc, err := NewObjectService(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if svc.Count() != 10 {
		t.Errorf("Count() = %d, want 10", svc.Count())
	}
	temp, err := svc.Get(3303)
	if err != nil {
		t.Fatal(err)
	}
	if temp.Instances[0].Resources[0].Name != "Sensor Value" {
		t.Errorf("resource = %+v", temp.Instances[0].Resources[0])
	}

	// A broken file keeps the previous catalog.
	writeFile(t, dir, "broken.yaml", "id: [")
	if err := svc.Reload(); !errors.Is(err, domain.ErrObjectModelInvalid) {
		t.Errorf("Reload() error = %v", err)
	}
	if svc.Count() != 10 {
		t.Errorf("Count() after failed reload = %d", svc.Count())
	}
}

func TestParseModels(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"single", "id: 10\nname: X", 1, false},
		{"list", "- {id: 10, name: X}\n- {id: 11, name: Y}", 2, false},
		{"scalar", "hello", 0, true},
		{"invalid object", "id: 10", 0, true},
		{"single instance violation", "id: 10\nname: X\ninstances: [{id: 0}, {id: 1}]", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModels([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModels() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseObjectIDs(t *testing.T) {
	ids, err := ParseObjectIDs("3, 5,19")
	if err != nil || len(ids) != 3 || ids[2] != 19 {
		t.Errorf("ParseObjectIDs() = %v, %v", ids, err)
	}
	for _, bad := range []string{"", ",", "x", "70000"} {
		if _, err := ParseObjectIDs(bad); err == nil {
			t.Errorf("ParseObjectIDs(%q) succeeded", bad)
		}
	}
}
