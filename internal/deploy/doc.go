// Package deploy deploys named contracts from compiled artifacts and keeps a
// record of each deployment, so reruns only send what changed.
package deploy
