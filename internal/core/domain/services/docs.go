// Package services provides domain services that orchestrate business operations
// across multiple domain entities in the factory system. It implements business
// logic that doesn't naturally belong to a single aggregate root.
//
// The package includes:
//   - LineRouter: A domain service routing new orders to the least-loaded assembly line
//
// Domain services coordinate between aggregates, implementing business logic that
// spans multiple bounded contexts following Domain-Driven Design principles.
package services
