package domain

import (
	"fmt"
	"sort"
)

// ResourceLwM2M is one resource of an object instance together with the
// profile's observe/attribute/telemetry selection.
type ResourceLwM2M struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Observe   bool   `json:"observe" yaml:"observe"`
	Attribute bool   `json:"attribute" yaml:"attribute"`
	Telemetry bool   `json:"telemetry" yaml:"telemetry"`
	KeyName   string `json:"keyName" yaml:"keyName"`
}

// Instance is an object instance.
type Instance struct {
	ID        int             `json:"id" yaml:"id"`
	Resources []ResourceLwM2M `json:"resources" yaml:"resources"`
}

// ObjectLwM2M describes an LwM2M object model.
type ObjectLwM2M struct {
	ID        int        `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Multiple  bool       `json:"multiple" yaml:"multiple"`
	Mandatory bool       `json:"mandatory" yaml:"mandatory"`
	Instances []Instance `json:"instances" yaml:"instances"`
}

// Check verifies id ranges and uniqueness of instance and resource ids.
func (o *ObjectLwM2M) Check() error {
	if o.ID < InstanceIDMin || o.ID > InstanceIDMax {
		return ErrObjectModelInvalid.WithDetails(fmt.Sprintf("object id %d out of range", o.ID))
	}
	if o.Name == "" {
		return ErrObjectModelInvalid.WithDetails(fmt.Sprintf("object %d has no name", o.ID))
	}
	seen := make(map[int]bool, len(o.Instances))
	for _, inst := range o.Instances {
		if inst.ID < InstanceIDMin || inst.ID > InstanceIDMax {
			return ErrObjectModelInvalid.WithDetails(fmt.Sprintf("object %d: instance id %d out of range", o.ID, inst.ID))
		}
		if seen[inst.ID] {
			return ErrObjectModelInvalid.WithDetails(fmt.Sprintf("object %d: duplicate instance %d", o.ID, inst.ID))
		}
		seen[inst.ID] = true

		res := make(map[int]bool, len(inst.Resources))
		for _, r := range inst.Resources {
			if res[r.ID] {
				return ErrObjectModelInvalid.WithDetails(fmt.Sprintf("object %d/%d: duplicate resource %d", o.ID, inst.ID, r.ID))
			}
			res[r.ID] = true
		}
	}
	if !o.Multiple && len(o.Instances) > 1 {
		return ErrObjectModelInvalid.WithDetails(fmt.Sprintf("object %d is single-instance", o.ID))
	}
	return nil
}

// ChangeInstancesIDs records instance ids added and removed in one edit.
type ChangeInstancesIDs struct {
	Add []int `json:"add"`
	Del []int `json:"del"`
}

// DiffInstanceIDs compares two instance id sets. Both result lists are sorted.
func DiffInstanceIDs(before, after []int) ChangeInstancesIDs {
	in := func(set []int) map[int]bool {
		m := make(map[int]bool, len(set))
		for _, id := range set {
			m[id] = true
		}
		return m
	}
	b, a := in(before), in(after)

	ch := ChangeInstancesIDs{Add: []int{}, Del: []int{}}
	for id := range a {
		if !b[id] {
			ch.Add = append(ch.Add, id)
		}
	}
	for id := range b {
		if !a[id] {
			ch.Del = append(ch.Del, id)
		}
	}
	sort.Ints(ch.Add)
	sort.Ints(ch.Del)
	return ch
}

// PageData is one page of a listing.
type PageData[T any] struct {
	Data          []T  `json:"data"`
	TotalPages    int  `json:"totalPages"`
	TotalElements int  `json:"totalElements"`
	HasNext       bool `json:"hasNext"`
}
