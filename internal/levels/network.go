package levels

import (
	"fmt"
	"strconv"
	"strings"

	"termescape/internal/game"
)

const (
	ifaceUp     = "UP"
	ifaceDown   = "DOWN"
	actionAllow = "ALLOW"
	actionDeny  = "DENY"

	resolvConf    = "/etc/resolv.conf"
	baseLocalPort = 12345
)

// Network is the final level: configure an interface, a gateway, DNS and
// the firewall, then connect to the escape portal.
type Network struct {
	meta
	spec NetworkSpec
}

var networkCommands = []string{"ifconfig", "ifup", "firewall-cmd", "route", "echo", "ping", "nslookup", "connect"}

func (l *Network) Initialize(gs *game.GameState) {
	if gs.LevelStates.Network != nil {
		return
	}
	gs.LevelStates.Network = l.seed()
}

func (l *Network) seed() *game.NetworkState {
	st := &game.NetworkState{
		Firewall:    game.Firewall{Enabled: l.spec.Firewall.Enabled},
		Connections: []game.Connection{},
	}
	for _, iface := range l.spec.Interfaces {
		st.Interfaces = append(st.Interfaces, game.Interface{
			Name:    iface.Name,
			Status:  iface.Status,
			IP:      iface.IP,
			Netmask: iface.Netmask,
		})
	}
	for _, r := range l.spec.Firewall.Rules {
		st.Firewall.Rules = append(st.Firewall.Rules, game.FirewallRule{Port: r.Port, Protocol: r.Protocol, Action: r.Action})
	}
	return st
}

func (l *Network) Render(gs *game.GameState) []string {
	st := gs.LevelStates.Network
	if st == nil {
		st = l.seed()
	}
	lines := []string{
		"You're trapped in an isolated system. Configure the network to escape.",
		"",
		"Network Interfaces:",
	}
	lines = append(lines, interfaceTable(st.Interfaces)...)
	lines = append(lines, "")
	if st.Firewall.Enabled {
		lines = append(lines, "Firewall Status: ENABLED", "Firewall Rules:")
		for _, r := range st.Firewall.Rules {
			lines = append(lines, "  "+ruleLine(r))
		}
	} else {
		lines = append(lines, "Firewall Status: DISABLED")
	}
	dns, gw := "Not configured", "Not configured"
	if st.DNS.Configured {
		dns = st.DNS.Server
	}
	if st.Gateway.Configured {
		gw = st.Gateway.Address
	}
	lines = append(lines, "", "DNS Server: "+dns, "Default Gateway: "+gw, "", "Active Connections:")
	if len(st.Connections) == 0 {
		lines = append(lines, "  None")
	}
	for _, c := range st.Connections {
		lines = append(lines, fmt.Sprintf("  %s %s:%d -> %s:%d", strings.ToUpper(c.Protocol), c.LocalAddress, c.LocalPort, c.RemoteAddress, c.RemotePort))
	}
	return append(lines,
		"",
		`Commands: "ifconfig", "ifup [interface]", "ifconfig [interface] [ip] [netmask]",`,
		`          "firewall-cmd --list", "firewall-cmd --disable", "firewall-cmd --allow [port]",`,
		`          "route add default [gateway]", "echo nameserver [ip] > /etc/resolv.conf",`,
		`          "ping [host]", "nslookup [host]", "connect [host] [port]"`,
	)
}

func interfaceTable(ifaces []game.Interface) []string {
	lines := []string{
		"NAME   STATUS   IP            NETMASK",
		"----------------------------------------",
	}
	for _, i := range ifaces {
		lines = append(lines, fmt.Sprintf("%-7s%-9s%-14s%s", i.Name, i.Status, i.IP, i.Netmask))
	}
	return lines
}

func ruleLine(r game.FirewallRule) string {
	return fmt.Sprintf("%s %s port %d", r.Action, strings.ToUpper(r.Protocol), r.Port)
}

func (l *Network) HandleInput(gs *game.GameState, input string) game.Result {
	l.Initialize(gs)
	st := gs.LevelStates.Network
	cmd, err := parse(input)
	if err != nil {
		return quoteError(err)
	}

	switch cmd.name {
	case "ifconfig":
		return l.ifconfig(st, cmd.args)
	case "ifup":
		if len(cmd.args) == 0 {
			return stay("Usage: ifup [interface]")
		}
		return l.ifup(st, cmd.arg(0))
	case "firewall-cmd":
		return l.firewall(st, cmd.args)
	case "route":
		return l.route(st, cmd.args)
	case "echo":
		return l.echo(st, cmd.args)
	case "ping":
		if len(cmd.args) == 0 {
			return stay("Usage: ping [host]")
		}
		return l.ping(st, cmd.arg(0))
	case "nslookup":
		if len(cmd.args) == 0 {
			return stay("Usage: nslookup [host]")
		}
		return l.nslookup(st, cmd.arg(0))
	case "connect":
		if len(cmd.args) < 2 {
			return stay("Usage: connect [host] [port]")
		}
		return l.connect(st, cmd.arg(0), cmd.arg(1))
	}
	return unknown("Unknown command or invalid syntax.", cmd.name, networkCommands)
}

func findInterface(st *game.NetworkState, name string) *game.Interface {
	for i := range st.Interfaces {
		if st.Interfaces[i].Name == name {
			return &st.Interfaces[i]
		}
	}
	return nil
}

func (l *Network) ifconfig(st *game.NetworkState, args []string) game.Result {
	switch len(args) {
	case 0:
		return stay(strings.Join(interfaceTable(st.Interfaces), "\n"))
	case 1:
		iface := findInterface(st, args[0])
		if iface == nil {
			return stay(fmt.Sprintf("Interface %s not found.", args[0]))
		}
		return stay(strings.Join(interfaceTable([]game.Interface{*iface}), "\n"))
	case 2:
		return stay("Usage: ifconfig [interface] [ip] [netmask]")
	}
	name, ip, mask := args[0], args[1], args[2]
	iface := findInterface(st, name)
	if iface == nil {
		return stay(fmt.Sprintf("Interface %s not found.", name))
	}
	if iface.Status != ifaceUp {
		return stay(fmt.Sprintf("Interface %s is down. Bring it up first with \"ifup %s\".", name, name))
	}
	if _, ok := parseIPv4(ip); !ok {
		return stay(fmt.Sprintf("Invalid IP address format: %s", ip))
	}
	if _, ok := parseIPv4(mask); !ok {
		return stay(fmt.Sprintf("Invalid netmask format: %s", mask))
	}
	iface.IP, iface.Netmask = ip, mask
	return stay(fmt.Sprintf("Configured %s with IP %s and netmask %s.", name, ip, mask))
}

func (l *Network) ifup(st *game.NetworkState, name string) game.Result {
	iface := findInterface(st, name)
	if iface == nil {
		return stay(fmt.Sprintf("Interface %s not found.", name))
	}
	if iface.Status == ifaceUp {
		return stay(fmt.Sprintf("Interface %s is already up.", name))
	}
	iface.Status = ifaceUp
	return stay(fmt.Sprintf("Interface %s is now UP.", name))
}

func parsePort(s string) (int, bool) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

func (l *Network) firewall(st *game.NetworkState, args []string) game.Result {
	switch {
	case len(args) == 1 && args[0] == "--list":
		lines := []string{"Firewall rules:"}
		for _, r := range st.Firewall.Rules {
			lines = append(lines, ruleLine(r))
		}
		if len(st.Firewall.Rules) == 0 {
			lines = append(lines, "(none)")
		}
		return stay(strings.Join(lines, "\n"))
	case len(args) == 1 && args[0] == "--disable":
		st.Firewall.Enabled = false
		return stay("Firewall disabled.")
	case len(args) == 1 && args[0] == "--enable":
		st.Firewall.Enabled = true
		return stay("Firewall enabled.")
	case len(args) == 2 && args[0] == "--allow":
		port, ok := parsePort(args[1])
		if !ok {
			return stay(fmt.Sprintf("Invalid port number: %s", args[1]))
		}
		for i := range st.Firewall.Rules {
			if st.Firewall.Rules[i].Port == port {
				st.Firewall.Rules[i].Action = actionAllow
				return stay(fmt.Sprintf("Allowed TCP port %d through firewall.", port))
			}
		}
		st.Firewall.Rules = append(st.Firewall.Rules, game.FirewallRule{Port: port, Protocol: "tcp", Action: actionAllow})
		return stay(fmt.Sprintf("Allowed TCP port %d through firewall.", port))
	}
	return stay("Usage: firewall-cmd --list | --disable | --enable | --allow [port]")
}

func (l *Network) route(st *game.NetworkState, args []string) game.Result {
	if len(args) == 0 {
		if !st.Gateway.Configured {
			return stay("No default gateway configured.")
		}
		return stay("Default gateway: " + st.Gateway.Address)
	}
	if len(args) >= 3 && args[0] == "add" && args[1] == "default" {
		gw := args[2]
		if gw == "gw" && len(args) > 3 {
			gw = args[3]
		}
		if _, ok := parseIPv4(gw); !ok {
			return stay(fmt.Sprintf("Invalid gateway address format: %s", gw))
		}
		st.Gateway = game.GatewayConfig{Configured: true, Address: gw}
		return stay(fmt.Sprintf("Default gateway set to %s.", gw))
	}
	return stay("Usage: route add default [gateway]")
}

// echo understands "echo nameserver IP > /etc/resolv.conf" and otherwise
// prints its arguments.
func (l *Network) echo(st *game.NetworkState, args []string) game.Result {
	var words []string
	for _, a := range args {
		words = append(words, strings.Fields(a)...)
	}
	redirect := -1
	for i, w := range words {
		if w == ">" {
			redirect = i
			break
		}
	}
	if redirect < 0 {
		return stay(strings.Join(words, " "))
	}
	text, target := words[:redirect], words[redirect+1:]
	if len(target) != 1 || target[0] != resolvConf {
		return stay(fmt.Sprintf("echo: cannot write to %s: Permission denied", strings.Join(target, " ")))
	}
	if len(text) != 2 || text[0] != "nameserver" {
		return stay("Usage: echo nameserver [ip] > /etc/resolv.conf")
	}
	server := text[1]
	if _, ok := parseIPv4(server); !ok {
		return stay(fmt.Sprintf("Invalid DNS server address format: %s", server))
	}
	st.DNS = game.DNSConfig{Configured: true, Server: server}
	return stay(fmt.Sprintf("DNS server set to %s.", server))
}

// reachable reports why the network cannot carry traffic, or "" when it can.
func reachable(st *game.NetworkState) string {
	if localAddress(st) == "" {
		return "Network is unreachable. Configure a network interface first."
	}
	if !st.Gateway.Configured {
		return "Network is unreachable. Configure a default gateway first."
	}
	return ""
}

// localAddress returns the IP of the first up, non-loopback interface.
func localAddress(st *game.NetworkState) string {
	for _, i := range st.Interfaces {
		if i.Status != ifaceUp {
			continue
		}
		addr, ok := parseIPv4(i.IP)
		if ok && !addr.IsLoopback() {
			return i.IP
		}
	}
	return ""
}

func pingOutput(host, ip string) string {
	head := fmt.Sprintf("PING %s (%s): 56 data bytes", host, ip)
	if host == ip {
		head = fmt.Sprintf("PING %s: 56 data bytes", host)
	}
	return strings.Join([]string{
		head,
		fmt.Sprintf("64 bytes from %s: icmp_seq=0 ttl=64 time=0.1 ms", ip),
		fmt.Sprintf("64 bytes from %s: icmp_seq=1 ttl=64 time=0.1 ms", ip),
		"",
		fmt.Sprintf("--- %s ping statistics ---", host),
		"2 packets transmitted, 2 packets received, 0.0% packet loss",
		"round-trip min/avg/max/stddev = 0.1/0.1/0.1/0.0 ms",
	}, "\n")
}

func (l *Network) ping(st *game.NetworkState, host string) game.Result {
	if msg := reachable(st); msg != "" {
		return stay(msg)
	}
	switch {
	case host == l.spec.Portal.Host:
		if !st.DNS.Configured {
			return stay(fmt.Sprintf("ping: unknown host %s. Configure DNS first.", host))
		}
		return stay(pingOutput(host, l.spec.Portal.IP))
	case host == l.spec.Portal.IP:
		return stay(pingOutput(host, host))
	}
	return stay(fmt.Sprintf("ping: cannot resolve %s: Unknown host", host))
}

func (l *Network) nslookup(st *game.NetworkState, host string) game.Result {
	if !st.DNS.Configured {
		return stay(fmt.Sprintf("nslookup: can't resolve '%s': No DNS servers configured", host))
	}
	server := fmt.Sprintf("Server:\t%s\nAddress:\t%s#53\n\n", st.DNS.Server, st.DNS.Server)
	if host == l.spec.Portal.Host {
		return stay(server + fmt.Sprintf("Non-authoritative answer:\nName:\t%s\nAddress: %s", host, l.spec.Portal.IP))
	}
	return stay(server + fmt.Sprintf("** server can't find %s: NXDOMAIN", host))
}

func (l *Network) connect(st *game.NetworkState, host, portArg string) game.Result {
	port, ok := parsePort(portArg)
	if !ok {
		return stay(fmt.Sprintf("Invalid port number: %s", portArg))
	}
	if msg := reachable(st); msg != "" {
		return stay(msg)
	}

	remote := host
	if _, isIP := parseIPv4(host); !isIP {
		if host != l.spec.Portal.Host || !st.DNS.Configured {
			return stay(fmt.Sprintf("connect: could not resolve %s: Name or service not known", host))
		}
		remote = l.spec.Portal.IP
	}

	if st.Firewall.Enabled {
		for _, r := range st.Firewall.Rules {
			if r.Port == port && r.Action == actionDeny {
				return stay("connect: Connection refused (blocked by firewall)")
			}
		}
	}

	if remote == l.spec.Portal.IP && port == l.spec.Portal.Port {
		return game.Result{
			Completed: true,
			Message: fmt.Sprintf("Connected to escape portal at %s:%d!\n\n"+
				"Welcome to the escape portal. You have successfully configured the network and escaped the isolated system.\n\n"+
				"Congratulations on completing all levels!", host, port),
			Next: game.MainMenu,
		}
	}

	st.Connections = append(st.Connections, game.Connection{
		Protocol:      "tcp",
		LocalAddress:  localAddress(st),
		LocalPort:     baseLocalPort + len(st.Connections),
		RemoteAddress: remote,
		RemotePort:    port,
	})
	return stay(fmt.Sprintf("Connected to %s:%d, but nothing interesting happened.", host, port))
}
