package collector

import "strings"

// matcher classifies an interface name.
type matcher func(name string) bool

func exact(want string) matcher {
	return func(name string) bool { return name == want }
}

// numbered matches prefix followed by at least one digit, e.g. "virbr0".
func numbered(prefix string) matcher {
	return func(name string) bool {
		if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
			return false
		}
		c := name[len(prefix)]
		return c >= '0' && c <= '9'
	}
}

// excluded lists loopback and the virtual/tunnel/bridge devices whose traffic
// would otherwise be counted twice. Hand maintained; keep the order.
var excluded = []matcher{
	exact("lo"),
	numbered("ifb"),   // traffictoll bandwidth manager
	numbered("lxdbr"), // lxd container manager
	numbered("virbr"), // libvirt bridge
	numbered("br"),    // bridge
	numbered("vnet"),  // virtual network
	numbered("tun"),   // tunnel
	numbered("tap"),   // tap device
}

// Excluded reports whether traffic on the named interface is left out of the totals.
func Excluded(name string) bool {
	for _, m := range excluded {
		if m(name) {
			return true
		}
	}
	return false
}
