// Package relay implements the room-based broadcast relay that mirrors
// canvas mutations between collaborators. The room bookkeeping is a plain
// data structure returning outbound message lists, so the forwarding rules
// are testable without a network; Server wires it to websocket connections.
package relay

import "sort"

// Outbound is a message the relay should deliver to one connection.
type Outbound struct {
	To  string
	Msg Message
}

// Registry tracks room membership: room name to the set of connection ids
// currently joined. It is not safe for concurrent use; the Server serializes
// access.
type Registry struct {
	rooms map[string]map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]struct{})}
}

// Join adds the connection to the room and returns the membership-count
// announcement addressed to every member, the joiner included.
func (r *Registry) Join(room, id string) []Outbound {
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	members[id] = struct{}{}
	return r.announce(room)
}

// Leave removes the connection from the room and returns the updated
// membership announcement for the remaining members. An emptied room is
// pruned rather than left behind.
func (r *Registry) Leave(room, id string) []Outbound {
	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	delete(members, id)
	if len(members) == 0 {
		delete(r.rooms, room)
		return nil
	}
	return r.announce(room)
}

// Broadcast returns the forwarding fan-out for a message received from a room
// member: the message verbatim, addressed to every other member. Messages of
// non-forwardable kinds produce no deliveries.
func (r *Registry) Broadcast(room, from string, msg Message) []Outbound {
	if !msg.Forwardable() {
		return nil
	}
	var out []Outbound
	for _, id := range r.members(room) {
		if id == from {
			continue
		}
		out = append(out, Outbound{To: id, Msg: msg})
	}
	return out
}

// Count returns the number of members in the room.
func (r *Registry) Count(room string) int {
	return len(r.rooms[room])
}

// RoomCount returns the number of live rooms.
func (r *Registry) RoomCount() int {
	return len(r.rooms)
}

func (r *Registry) announce(room string) []Outbound {
	msg := UsersMessage(len(r.rooms[room]))
	var out []Outbound
	for _, id := range r.members(room) {
		out = append(out, Outbound{To: id, Msg: msg})
	}
	return out
}

// members returns the room's connection ids in sorted order so delivery
// lists are deterministic.
func (r *Registry) members(room string) []string {
	ids := make([]string, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
