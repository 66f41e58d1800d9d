// Copyright IBM Corp. 2020, 2025
// SPDX-License-Identifier: BUSL-1.1

// Package ldap declares the options of the LDAP identity backend.
package ldap

import (
	"context"

	"github.com/quotagate/quotagate/internal/conf"
)

// GroupName is the configuration group every option in this package is
// registered under.
const GroupName = "ldap"

const deprecatedLdapWrite = "Write support for the LDAP identity backend has been deprecated in the Mitaka release and will be removed in the Ocata release."

var (
	Url = conf.StrOpt("url",
		"URL(s) for connecting to the LDAP server. Multiple LDAP URLs may be specified as a comma separated string. The first URL to successfully bind is used for the connection.",
		conf.WithDefault("ldap://localhost"))

	User = conf.StrOpt("user",
		"The user name of the administrator bind DN to use when querying the LDAP server, if your LDAP server requires it.")

	Password = conf.StrOpt("password",
		"The password of the administrator bind DN to use when querying the LDAP server, if your LDAP server requires it.",
		conf.WithSecret())

	Suffix = conf.StrOpt("suffix",
		"The default LDAP server suffix to use, if a DN is not defined via either `[ldap] user_tree_dn` or `[ldap] group_tree_dn`.",
		conf.WithDefault("cn=example,cn=com"))

	UseDumbMember = conf.BoolOpt("use_dumb_member",
		"If true, a dummy member based on `[ldap] dumb_member` is added when creating new groups. Required if the group object class requires the `member` attribute. Only used for write operations.",
		conf.WithDefault(false))

	DumbMember = conf.StrOpt("dumb_member",
		"DN of the \"dummy member\" to use when `[ldap] use_dumb_member` is enabled. Only used for write operations.",
		conf.WithDefault("cn=dumb,dc=nonexistent"))

	AllowSubtreeDelete = conf.BoolOpt("allow_subtree_delete",
		"Delete subtrees using the subtree delete control. Only enable this option if your LDAP server supports subtree deletion. Only used for write operations.",
		conf.WithDefault(false))

	QueryScope = conf.StrOpt("query_scope",
		"The search scope which defines how deep to search within the search base. `one` searches the objects immediately below the base object but not the base object itself. `sub` searches the base object and the entire subtree below it.",
		conf.WithDefault("one"),
		conf.WithChoices("one", "sub"))

	PageSize = conf.IntOpt("page_size",
		"The maximum number of results per page to request from the LDAP server when listing objects. Zero (`0`) disables paging.",
		conf.WithDefault(0),
		conf.WithMin(0))

	AliasDereferencing = conf.StrOpt("alias_dereferencing",
		"The LDAP dereferencing option to use for queries involving aliases. `default` uses the behavior configured by `ldap.conf`. `never` prevents aliases from being dereferenced. `searching` dereferences aliases only after name resolution. `finding` dereferences aliases only during name resolution. `always` dereferences aliases in all cases.",
		conf.WithDefault("default"),
		conf.WithChoices("never", "searching", "always", "finding", "default"))

	DebugLevel = conf.IntOpt("debug_level",
		"Sets the LDAP debugging level for LDAP calls. Zero disables debugging. This value is a bitmask, consult your LDAP documentation for possible values.",
		conf.WithMin(-1))

	ChaseReferrals = conf.BoolOpt("chase_referrals",
		"Sets the referral chasing behavior across directory partitions. If left unset, the system's default behavior is used.")

	UserTreeDn = conf.StrOpt("user_tree_dn",
		"The search base to use for users. Defaults to the `[ldap] suffix` value.")

	UserFilter = conf.StrOpt("user_filter",
		"The LDAP search filter to use for users.")

	UserObjectclass = conf.StrOpt("user_objectclass",
		"The LDAP object class to use for users.",
		conf.WithDefault("inetOrgPerson"))

	UserIdAttribute = conf.StrOpt("user_id_attribute",
		"The LDAP attribute mapped to user IDs. This must NOT be a multivalued attribute. User IDs are expected to be globally unique across domains and URL-safe.",
		conf.WithDefault("cn"))

	UserNameAttribute = conf.StrOpt("user_name_attribute",
		"The LDAP attribute mapped to user names. User names are expected to be unique only within a domain and are not expected to be URL-safe.",
		conf.WithDefault("sn"))

	UserDescriptionAttribute = conf.StrOpt("user_description_attribute",
		"The LDAP attribute mapped to user descriptions.",
		conf.WithDefault("description"))

	UserMailAttribute = conf.StrOpt("user_mail_attribute",
		"The LDAP attribute mapped to user emails.",
		conf.WithDefault("mail"))

	UserPassAttribute = conf.StrOpt("user_pass_attribute",
		"The LDAP attribute mapped to user passwords.",
		conf.WithDefault("userPassword"))

	UserEnabledAttribute = conf.StrOpt("user_enabled_attribute",
		"The LDAP attribute mapped to the user enabled attribute. If set to `userAccountControl`, consider setting `[ldap] user_enabled_mask` and `[ldap] user_enabled_default` as well.",
		conf.WithDefault("enabled"))

	UserEnabledInvert = conf.BoolOpt("user_enabled_invert",
		"Logically negate the boolean value of the enabled attribute obtained from the LDAP server. Some LDAP servers use a boolean lock attribute where \"true\" means an account is disabled. Has no effect if `[ldap] user_enabled_mask` or `[ldap] user_enabled_emulation` are in use.",
		conf.WithDefault(false))

	UserEnabledMask = conf.IntOpt("user_enabled_mask",
		"Bitmask integer selecting which bit indicates the enabled value if the LDAP server represents \"enabled\" as a bit on an integer. Zero disables the mask; the typical value otherwise is `2`. Setting this option ignores `[ldap] user_enabled_invert`.",
		conf.WithDefault(0),
		conf.WithMin(0))

	UserEnabledDefault = conf.StrOpt("user_enabled_default",
		"The default value to enable users. This should match an appropriate integer value if the LDAP server uses bitmask values to indicate if a user is enabled. The typical value otherwise is `512`.",
		conf.WithDefault("True"))

	UserAttributeIgnore = conf.ListOpt("user_attribute_ignore",
		"List of user attributes to ignore on create and update. Only used for write operations.",
		conf.WithDefault([]string{"default_project_id"}))

	UserDefaultProjectIdAttribute = conf.StrOpt("user_default_project_id_attribute",
		"The LDAP attribute mapped to a user's default_project_id. This is most commonly used when the LDAP server is writable.")

	UserAllowCreate = conf.BoolOpt("user_allow_create",
		"If enabled, users may be created in the LDAP server.",
		conf.WithDefault(true),
		conf.WithDeprecatedForRemoval(deprecatedLdapWrite))

	UserAllowUpdate = conf.BoolOpt("user_allow_update",
		"If enabled, users may be updated in the LDAP server.",
		conf.WithDefault(true),
		conf.WithDeprecatedForRemoval(deprecatedLdapWrite))

	UserAllowDelete = conf.BoolOpt("user_allow_delete",
		"If enabled, users may be deleted from the LDAP server.",
		conf.WithDefault(true),
		conf.WithDeprecatedForRemoval(deprecatedLdapWrite))

	UserEnabledEmulation = conf.BoolOpt("user_enabled_emulation",
		"If enabled, a user is considered enabled when they are a member of the group defined by `[ldap] user_enabled_emulation_dn`. Enabling this option ignores `[ldap] user_enabled_invert`.",
		conf.WithDefault(false))

	UserEnabledEmulationDn = conf.StrOpt("user_enabled_emulation_dn",
		"DN of the group entry to hold enabled users when using enabled emulation. Has no effect unless `[ldap] user_enabled_emulation` is enabled.")

	UserEnabledEmulationUseGroupConfig = conf.BoolOpt("user_enabled_emulation_use_group_config",
		"Use `[ldap] group_member_attribute` and `[ldap] group_objectclass` to determine membership in the emulated enabled group. Has no effect unless `[ldap] user_enabled_emulation` is enabled.",
		conf.WithDefault(false))

	UserAdditionalAttributeMapping = conf.ListOpt("user_additional_attribute_mapping",
		"A list of LDAP attribute to user attribute pairs used for mapping additional attributes to users, in the format `<ldap_attr>:<user_attr>`.",
		conf.WithDefault([]string{}))

	GroupTreeDn = conf.StrOpt("group_tree_dn",
		"The search base to use for groups. Defaults to the `[ldap] suffix` value.")

	GroupFilter = conf.StrOpt("group_filter",
		"The LDAP search filter to use for groups.")

	GroupObjectclass = conf.StrOpt("group_objectclass",
		"The LDAP object class to use for groups. If set to `posixGroup`, consider enabling `[ldap] group_members_are_ids`.",
		conf.WithDefault("groupOfNames"))

	GroupIdAttribute = conf.StrOpt("group_id_attribute",
		"The LDAP attribute mapped to group IDs. This must NOT be a multivalued attribute. Group IDs are expected to be globally unique across domains and URL-safe.",
		conf.WithDefault("cn"))

	GroupNameAttribute = conf.StrOpt("group_name_attribute",
		"The LDAP attribute mapped to group names. Group names are expected to be unique only within a domain and are not expected to be URL-safe.",
		conf.WithDefault("ou"))

	GroupMemberAttribute = conf.StrOpt("group_member_attribute",
		"The LDAP attribute used to indicate that a user is a member of the group.",
		conf.WithDefault("member"))

	GroupMembersAreIds = conf.BoolOpt("group_members_are_ids",
		"Enable this option if the members of the group object class are user IDs rather than LDAP DNs, as with `posixGroup`.",
		conf.WithDefault(false))

	GroupDescAttribute = conf.StrOpt("group_desc_attribute",
		"The LDAP attribute mapped to group descriptions.",
		conf.WithDefault("description"))

	GroupAttributeIgnore = conf.ListOpt("group_attribute_ignore",
		"List of group attributes to ignore on create and update. Only used for write operations.",
		conf.WithDefault([]string{}))

	GroupAllowCreate = conf.BoolOpt("group_allow_create",
		"If enabled, groups may be created in the LDAP server.",
		conf.WithDefault(true),
		conf.WithDeprecatedForRemoval(deprecatedLdapWrite))

	GroupAllowUpdate = conf.BoolOpt("group_allow_update",
		"If enabled, groups may be updated in the LDAP server.",
		conf.WithDefault(true),
		conf.WithDeprecatedForRemoval(deprecatedLdapWrite))

	GroupAllowDelete = conf.BoolOpt("group_allow_delete",
		"If enabled, groups may be deleted from the LDAP server.",
		conf.WithDefault(true),
		conf.WithDeprecatedForRemoval(deprecatedLdapWrite))

	GroupAdditionalAttributeMapping = conf.ListOpt("group_additional_attribute_mapping",
		"A list of LDAP attribute to group attribute pairs used for mapping additional attributes to groups, in the format `<ldap_attr>:<group_attr>`.",
		conf.WithDefault([]string{}))

	TlsCacertfile = conf.StrOpt("tls_cacertfile",
		"An absolute path to a CA certificate file to use when communicating with LDAP servers. Takes precedence over `[ldap] tls_cacertdir`.")

	TlsCacertdir = conf.StrOpt("tls_cacertdir",
		"An absolute path to a CA certificate directory to use when communicating with LDAP servers. Not needed when `[ldap] tls_cacertfile` is set.")

	UseTls = conf.BoolOpt("use_tls",
		"Enable TLS (StartTLS) when communicating with LDAP servers. Do not set this option when using LDAP over SSL (LDAPS).",
		conf.WithDefault(false))

	TlsReqCert = conf.StrOpt("tls_req_cert",
		"Which checks to perform against server certificates on TLS sessions. `demand` always requests and requires a certificate, `allow` requests but does not require one, and `never` never requests one.",
		conf.WithDefault("demand"),
		conf.WithChoices("demand", "never", "allow"))

	UsePool = conf.BoolOpt("use_pool",
		"Enable LDAP connection pooling for queries to the LDAP server.",
		conf.WithDefault(true))

	PoolSize = conf.IntOpt("pool_size",
		"The size of the LDAP connection pool. Has no effect unless `[ldap] use_pool` is enabled.",
		conf.WithDefault(10),
		conf.WithMin(1))

	PoolRetryMax = conf.IntOpt("pool_retry_max",
		"The maximum number of times to attempt reconnecting to the LDAP server before aborting. Zero prevents retries. Has no effect unless `[ldap] use_pool` is enabled.",
		conf.WithDefault(3),
		conf.WithMin(0))

	PoolRetryDelay = conf.FloatOpt("pool_retry_delay",
		"The number of seconds to wait before attempting to reconnect to the LDAP server. Has no effect unless `[ldap] use_pool` is enabled.",
		conf.WithDefault(0.1))

	PoolConnectionTimeout = conf.IntOpt("pool_connection_timeout",
		"The connection timeout in seconds to use with the LDAP server. `-1` means connections never time out. Has no effect unless `[ldap] use_pool` is enabled.",
		conf.WithDefault(-1),
		conf.WithMin(-1))

	PoolConnectionLifetime = conf.IntOpt("pool_connection_lifetime",
		"The maximum connection lifetime to the LDAP server in seconds, after which the connection is unbound and removed from the pool. Has no effect unless `[ldap] use_pool` is enabled.",
		conf.WithDefault(600),
		conf.WithMin(1))

	UseAuthPool = conf.BoolOpt("use_auth_pool",
		"Enable LDAP connection pooling for end user authentication.",
		conf.WithDefault(true))

	AuthPoolSize = conf.IntOpt("auth_pool_size",
		"The size of the connection pool to use for end user authentication. Has no effect unless `[ldap] use_auth_pool` is enabled.",
		conf.WithDefault(100),
		conf.WithMin(1))

	AuthPoolConnectionLifetime = conf.IntOpt("auth_pool_connection_lifetime",
		"The maximum end user authentication connection lifetime to the LDAP server in seconds, after which the connection is unbound and removed from the pool. Has no effect unless `[ldap] use_auth_pool` is enabled.",
		conf.WithDefault(60),
		conf.WithMin(1))
)

// AllOpts is every LDAP option in declaration order.
var AllOpts = []*conf.Opt{
	Url,
	User,
	Password,
	Suffix,
	UseDumbMember,
	DumbMember,
	AllowSubtreeDelete,
	QueryScope,
	PageSize,
	AliasDereferencing,
	DebugLevel,
	ChaseReferrals,
	UserTreeDn,
	UserFilter,
	UserObjectclass,
	UserIdAttribute,
	UserNameAttribute,
	UserDescriptionAttribute,
	UserMailAttribute,
	UserPassAttribute,
	UserEnabledAttribute,
	UserEnabledInvert,
	UserEnabledMask,
	UserEnabledDefault,
	UserAttributeIgnore,
	UserDefaultProjectIdAttribute,
	UserAllowCreate,
	UserAllowUpdate,
	UserAllowDelete,
	UserEnabledEmulation,
	UserEnabledEmulationDn,
	UserEnabledEmulationUseGroupConfig,
	UserAdditionalAttributeMapping,
	GroupTreeDn,
	GroupFilter,
	GroupObjectclass,
	GroupIdAttribute,
	GroupNameAttribute,
	GroupMemberAttribute,
	GroupMembersAreIds,
	GroupDescAttribute,
	GroupAttributeIgnore,
	GroupAllowCreate,
	GroupAllowUpdate,
	GroupAllowDelete,
	GroupAdditionalAttributeMapping,
	TlsCacertfile,
	TlsCacertdir,
	UseTls,
	TlsReqCert,
	UsePool,
	PoolSize,
	PoolRetryMax,
	PoolRetryDelay,
	PoolConnectionTimeout,
	PoolConnectionLifetime,
	UseAuthPool,
	AuthPoolSize,
	AuthPoolConnectionLifetime,
}

// RegisterOpts registers AllOpts with r under GroupName.
func RegisterOpts(ctx context.Context, r *conf.Registry) error {
	return r.Register(ctx, GroupName, AllOpts...)
}

// ListOpts returns AllOpts keyed by GroupName.
func ListOpts() map[string][]*conf.Opt {
	return map[string][]*conf.Opt{GroupName: AllOpts}
}
