// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

/*
Package perms provides the permissions engine for the API. Each resource and
action pair maps to a rule:

* anonymous: any caller, authenticated or not
* authenticated: any authenticated caller
* admin: an authenticated caller holding the admin role

Pairs with no rule are denied.
*/
package perms
