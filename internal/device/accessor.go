package device

import (
	"fmt"
	"strings"
)

// GetData navigates the descriptor tree to a datapoint or nested leaf.
//
// Navigation proceeds in three steps:
//  1. Find the management point whose embeddedId matches managementPointID.
//  2. Find the datapoint under datapointKey within that management point.
//  3. If subPath is non-empty, split it on "/" (empty segments dropped)
//     and descend: each step expects the current node to be an object
//     exposing "value" and descends into value[segment].
//
// With an empty subPath the datapoint node itself is returned.
//
// The result is a read view into the live tree — callers must not mutate
// it. The accessor itself never mutates the tree and never substitutes
// defaults; a missing or malformed step always surfaces as an error
// wrapping ErrDataNotFound, naming the requested id or full path.
func (d *Descriptor) GetData(managementPointID, datapointKey, subPath string) (any, error) {
	mp, err := d.managementPoint(managementPointID)
	if err != nil {
		return nil, err
	}

	node, ok := mp.Datapoints[datapointKey]
	if !ok {
		return nil, fmt.Errorf("%w: datapoint %q in management point %q",
			ErrDataNotFound, datapointKey, managementPointID)
	}

	if subPath == "" {
		return node, nil
	}

	for _, segment := range strings.Split(subPath, "/") {
		if segment == "" {
			continue
		}
		node, ok = descend(node, segment)
		if !ok {
			return nil, fmt.Errorf("%w: path %q/%q%s",
				ErrDataNotFound, managementPointID, datapointKey, normalizePath(subPath))
		}
	}

	return node, nil
}

// managementPoint finds a management point by embeddedId.
func (d *Descriptor) managementPoint(embeddedID string) (*ManagementPoint, error) {
	for i := range d.ManagementPoints {
		if d.ManagementPoints[i].EmbeddedID == embeddedID {
			return &d.ManagementPoints[i], nil
		}
	}
	return nil, fmt.Errorf("%w: management point %q", ErrDataNotFound, embeddedID)
}

// descend steps from a datapoint node into one child of its "value" object.
// It returns false if the node is not an object, carries no object-shaped
// "value", or the child is absent.
func descend(node any, segment string) (any, bool) {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, false
	}
	value, ok := obj["value"].(map[string]any)
	if !ok {
		return nil, false
	}
	child, ok := value[segment]
	return child, ok
}

// normalizePath renders a sub-path with a single leading slash for
// diagnostics, regardless of how the caller spelt it.
func normalizePath(subPath string) string {
	return "/" + strings.Trim(subPath, "/")
}
