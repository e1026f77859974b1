// Package expression evaluates an optional CEL policy against a verified
// token. The expression sees two map variables, header and claims, and must
// produce a boolean. An empty expression always passes.
//
//	v, err := expression.New(`claims.email_verified == true && "admin" in claims.roles`)
//	if err != nil {
//	    // compile error, reported at startup
//	}
//	err = v.Validate(ctx, header, claims)
package expression
