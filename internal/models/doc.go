// Package models defines the core domain models for the esusu service.
//
// # Model Overview
//
//   - Group: a savings group with a fixed contribution amount per period
//   - Membership: a (user, group) pair, unique per pair
//   - Cycle: one full rotation period of a group, with its own contribution
//     window and payout order
//   - PaymentListEntry: one slot in a cycle's rotating payout order
//   - SavingsListEntry: the record of one contribution charge attempt
//   - Transaction: a gateway-backed money movement (charge or transfer)
//   - Bank: a member's verified transfer destination
//   - Card: a member's saved payment instrument
//
// # Design Principles
//
//  1. **No hidden ownership**: ownership checks go through the Ownable
//     capability rather than duck-typed attribute lookups.
//  2. **Avoid circular references**: models reference each other by ID
//     strings, never by pointer.
//  3. **Dates vs timestamps**: scheduling fields (start/end/saving/payment
//     dates) are calendar dates at UTC midnight; audit fields are Unix
//     timestamps.
package models
