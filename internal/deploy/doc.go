// Package deploy uploads a production build to S3 or an S3 compatible
// object store.
//
// Fingerprinted bundles are uploaded first with an immutable Cache-Control
// header. Documents and the asset manifest follow with "no-cache", so a
// page is never published before the bundles it references. With Prune,
// objects under the prefix that are no longer part of the build are
// deleted afterwards.
package deploy
