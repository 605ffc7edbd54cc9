// Package acl decides which entries a bound identity may read.
//
// Rules are evaluated in order and the first rule whose target and subject
// match decides. When no rule matches, the default policy applies.
//
//	cfg := acl.NewConfig()
//	cfg.SetDefaultPolicy("deny")
//	cfg.AddRule(acl.NewACL("ou=People,dc=example,dc=com", "authenticated", acl.Read))
//	cfg.AddRule(acl.NewACL("*", "self", acl.Read))
//
//	ev := acl.NewEvaluator(cfg)
//	ev.CanRead("uid=alice,ou=People,dc=example,dc=com", "cn=staff,ou=Groups,dc=example,dc=com")
//
// # Subjects
//
//   - "*": everyone
//   - "anonymous": unbound requests
//   - "authenticated": any bound DN
//   - "self": the bound DN is the target entry
//   - any other value: that exact DN
//
// Root operations and the automember overlay's internal lookups never pass
// through the evaluator.
package acl
