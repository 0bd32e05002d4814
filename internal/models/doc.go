// Package models defines the core domain models for familysync.
//
// # Documents
//
// The data model mirrors a shared household document namespace:
//   - Profile: one per user, holds the family the user is currently linked to
//   - Family: one per household group, keyed by a short shareable code
//   - Item: a routine, shopping, education, or event entry owned by a family
//
// Users are identified by opaque strings issued by the identity provider.
// Nothing in this package creates or destroys identities.
//
// # Read Model
//
// Snapshot is what the sync layer publishes to the presentation layer: the
// active family, its items ordered newest first, and the loading/sync state.
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships use ID strings (FamilyID, CreatedBy)
// 2. **Store-assigned time**: CreatedAt is stamped by the store, never the caller
// 3. **Nil means pending**: an Item with a nil CreatedAt has not been stamped yet
package models
