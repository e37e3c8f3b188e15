// Package integration contains the Integration bounded context.
// This context manages the synchronization between the POS back office and
// external delivery platforms.
//
// Key concepts:
//   - DeliveryPlatform: Port interface for delivery platforms (Careem, Talabat)
//   - ProductMapping: Entity linking platform product identities to POS items
//   - InboundOrder: Normalized value object for platform order webhooks
//   - Receipt: POS-facing representation of an inbound order
//   - SyncLog: Immutable audit record of every synchronization attempt
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
