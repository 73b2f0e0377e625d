// Package models contains the GORM persistence models of the storage and
// purchasing tables. Domain entities carry no ORM tags; each model converts
// to and from its entity with ToDomain and FromDomain.
//
// Files:
//   - base.go: BaseModel and AggregateModel (optimistic locking version)
//   - catalog.go: storage categories and their custom field schema
//   - inventory.go: storage items
//   - partner.go: suppliers and supplier item links
//   - trade.go: purchase orders and their items
package models
