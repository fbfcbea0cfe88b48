// Package unit contains the Unit aggregate, the dispatcher's view of a field
// unit on the mesh network.
//
// Unit state mirrors radio reports rather than commands, so its transition
// table is permissive: any state can drop to offline or error, and a fresh
// report revives a unit the liveness sweep had written off. The delivery
// reference a unit carries is released whenever it stops working (idle,
// offline or error).
package unit
