/*
 * Copyright (c) "GraphBolt"
 * GraphBolt Project [https://github.com/graphbolt]
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package graphbolt

const (
	keyScheme      = "scheme"
	keyPrincipal   = "principal"
	keyCredentials = "credentials"
	keyRealm       = "realm"

	schemeNone   = "none"
	schemeBasic  = "basic"
	schemeBearer = "bearer"
)

// AuthToken contains credentials to be sent over to the server.
type AuthToken struct {
	tokens map[string]any
}

// NoAuth generates an empty authentication token.
func NoAuth() AuthToken {
	return AuthToken{tokens: map[string]any{
		keyScheme: schemeNone,
	}}
}

// BasicAuth generates a basic authentication token with provided username,
// password and realm. Use an empty string for realm when not applicable.
func BasicAuth(username string, password string, realm string) AuthToken {
	token := AuthToken{tokens: map[string]any{
		keyScheme:      schemeBasic,
		keyPrincipal:   username,
		keyCredentials: password,
	}}
	if realm != "" {
		token.tokens[keyRealm] = realm
	}
	return token
}

// BearerAuth generates an authentication token based on a base64 encoded
// bearer token, typically issued by an identity provider.
func BearerAuth(token string) AuthToken {
	return AuthToken{tokens: map[string]any{
		keyScheme:      schemeBearer,
		keyCredentials: token,
	}}
}

// CustomAuth generates a token for servers with custom authentication
// providers.
func CustomAuth(scheme string, username string, password string, realm string, parameters map[string]any) AuthToken {
	token := AuthToken{tokens: map[string]any{
		keyScheme:    scheme,
		keyPrincipal: username,
	}}
	if password != "" {
		token.tokens[keyCredentials] = password
	}
	if realm != "" {
		token.tokens[keyRealm] = realm
	}
	if len(parameters) > 0 {
		token.tokens["parameters"] = parameters
	}
	return token
}
