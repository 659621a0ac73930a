// Package batch builds fixed-capacity training snapshots from a source.
//
// A LabelBatch pulls a full batch per Refresh and exposes the resident
// values as one stacked array plus the matching label slice. A PairedBatch
// additionally derives a label-balanced pairing over the batch: half the
// pairs share a label, half do not, suitable for contrastive objectives.
package batch
