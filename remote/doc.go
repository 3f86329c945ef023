// Package remote checks that a configured host can be reached over SSH.
//
// Probe authenticates the same way an interactive ssh would (the running
// agent, then the usual key files in ~/.ssh), verifies the host key against
// known_hosts and asks the remote for the location of rsync. It only reads;
// transfers always go through rsync and the system ssh.
//
// Basic usage:
//
//	res, err := remote.Probe(ctx, cfg, remote.ProbeOptions{})
//	if err != nil {
//	    return err
//	}
//	if !res.HasRemoteRsync() {
//	    fmt.Println("rsync is not installed on", res.Addr)
//	}
package remote
