// Package reconcile converges the hub's device inventory to the
// vendor's.
//
// The external ID (the vendor device identifier carried in each hub
// device's app section) is the join key. The reconciler only creates
// and deletes; it never mutates matched devices, which makes repeated
// runs idempotent. Every created or deleted device is reported per
// item so one failing device cannot hide the outcome of the rest.
package reconcile
