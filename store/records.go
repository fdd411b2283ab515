package store

import (
	"context"

	"skypanel/model"
)

// Key scheme shared with every query path. List records hold whole
// documents; the per-instance and per-node records are the keyed
// single-record copies.
func nodeKey(id string) string          { return id + "_node" }
func instanceKey(id string) string      { return id + "_instance" }
func userInstancesKey(uid string) string { return uid + "_instances" }

// Store wraps a KV with the panel's typed record accessors. Missing
// keys read as zero values: absence is not an error for list records.
type Store struct {
	kv KV
}

func New(kv KV) *Store {
	return &Store{kv: kv}
}

// KV exposes the underlying key/value client.
func (s *Store) KV() KV {
	return s.kv
}

// Users

func (s *Store) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := s.kv.Get(ctx, "users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []model.User) error {
	return s.kv.Set(ctx, "users", users)
}

// UserByID returns nil when no user matches.
func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].UserID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}

// API keys

func (s *Store) APIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if _, err := s.kv.Get(ctx, "apiKeys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) SaveAPIKeys(ctx context.Context, keys []model.APIKey) error {
	return s.kv.Set(ctx, "apiKeys", keys)
}

// Images

func (s *Store) Images(ctx context.Context) ([]model.Image, error) {
	var images []model.Image
	if _, err := s.kv.Get(ctx, "images", &images); err != nil {
		return nil, err
	}
	return images, nil
}

func (s *Store) SaveImages(ctx context.Context, images []model.Image) error {
	return s.kv.Set(ctx, "images", images)
}

// ImageByName returns nil when the catalog has no entry; deployment
// proceeds without image metadata in that case.
func (s *Store) ImageByName(ctx context.Context, name string) (*model.Image, error) {
	images, err := s.Images(ctx)
	if err != nil {
		return nil, err
	}
	for i := range images {
		if images[i].Name == name {
			return &images[i], nil
		}
	}
	return nil, nil
}

// Nodes

func (s *Store) NodeIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := s.kv.Get(ctx, "nodes", &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) SaveNodeIDs(ctx context.Context, ids []string) error {
	return s.kv.Set(ctx, "nodes", ids)
}

// Node returns nil when the node record is absent.
func (s *Store) Node(ctx context.Context, id string) (*model.Node, error) {
	var node model.Node
	found, err := s.kv.Get(ctx, nodeKey(id), &node)
	if err != nil || !found {
		return nil, err
	}
	return &node, nil
}

func (s *Store) SaveNode(ctx context.Context, node *model.Node) error {
	return s.kv.Set(ctx, nodeKey(node.ID), node)
}

// DeleteNode removes the node record and its id from the global list.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	ids, err := s.NodeIDs(ctx)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, nid := range ids {
		if nid != id {
			kept = append(kept, nid)
		}
	}
	if err := s.SaveNodeIDs(ctx, kept); err != nil {
		return err
	}
	return s.kv.Delete(ctx, nodeKey(id))
}

// Instances

func (s *Store) Instances(ctx context.Context) ([]model.Instance, error) {
	var instances []model.Instance
	if _, err := s.kv.Get(ctx, "instances", &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *Store) SaveInstances(ctx context.Context, instances []model.Instance) error {
	return s.kv.Set(ctx, "instances", instances)
}

func (s *Store) UserInstances(ctx context.Context, userID string) ([]model.Instance, error) {
	var instances []model.Instance
	if _, err := s.kv.Get(ctx, userInstancesKey(userID), &instances); err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *Store) SaveUserInstances(ctx context.Context, userID string, instances []model.Instance) error {
	return s.kv.Set(ctx, userInstancesKey(userID), instances)
}

// Instance returns nil when the keyed record is absent.
func (s *Store) Instance(ctx context.Context, id string) (*model.Instance, error) {
	var inst model.Instance
	found, err := s.kv.Get(ctx, instanceKey(id), &inst)
	if err != nil || !found {
		return nil, err
	}
	return &inst, nil
}

func (s *Store) SaveInstance(ctx context.Context, inst *model.Instance) error {
	return s.kv.Set(ctx, instanceKey(inst.ID), inst)
}

func (s *Store) DeleteInstanceRecord(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, instanceKey(id))
}

// PersistDeployment writes the three instance locations (owner list,
// global list, keyed record) as one atomic batch.
func (s *Store) PersistDeployment(ctx context.Context, inst *model.Instance, owned, global []model.Instance) error {
	return s.kv.Apply(ctx, []Write{
		{Key: userInstancesKey(inst.User), Value: owned},
		{Key: "instances", Value: global},
		{Key: instanceKey(inst.ID), Value: inst},
	})
}

// PruneInstance removes an instance from all three locations as one
// atomic batch.
func (s *Store) PruneInstance(ctx context.Context, inst *model.Instance, owned, global []model.Instance) error {
	return s.kv.Apply(ctx, []Write{
		{Key: userInstancesKey(inst.User), Value: owned},
		{Key: "instances", Value: global},
		{Key: instanceKey(inst.ID), Remove: true},
	})
}

// OwnerNode resolves an instance's node from the canonical node
// record, so rotated daemon keys take effect on the next call. The
// snapshot embedded at deploy time is only the fallback for
// instances whose node record has been deleted.
func (s *Store) OwnerNode(ctx context.Context, inst *model.Instance) *model.Node {
	node, err := s.Node(ctx, inst.Node.ID)
	if err != nil || node == nil {
		return &inst.Node
	}
	return node
}

// Panel name

func (s *Store) PanelName(ctx context.Context) (string, error) {
	var name string
	found, err := s.kv.Get(ctx, "name", &name)
	if err != nil {
		return "", err
	}
	if !found || name == "" {
		return "Skypanel", nil
	}
	return name, nil
}
