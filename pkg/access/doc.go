// Package access decides which component namespaces may reference which
// controllers.
//
// Namespaces and controllers are matched with dotted patterns: an exact name,
// the global wildcard "*", or a hierarchy prefix such as "uikit.*".
//
//	policy, err := access.LoadPolicyFile("access.yaml")
//	if err != nil {
//		return err
//	}
//	if err := policy.Check(controller, component, false); err != nil {
//		// err is a *descriptor.NoAccessError
//	}
//
// A policy document looks like:
//
//	system_namespaces: [ui, "uikit.*"]
//	grants:
//	  - namespace: c
//	    controllers: ["testcontrollers.*"]
package access
