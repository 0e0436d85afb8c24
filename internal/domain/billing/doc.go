// Package billing implements progress payments ("hakediş"): periodic interim billing
// documents computed from cumulative completed quantities of a project's BoQ.
//
// The package holds the ProgressPayment aggregate, the calculation engine, the payment
// sequencer and the approval workflow together with the outbound ports it drives.
package billing
