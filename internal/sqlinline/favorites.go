package sqlinline

// QInsertFavorite reports whether the completed job exists for the owner and whether a row was added.
const QInsertFavorite = `--sql 24d620c9-2bc2-4ae1-b35d-3ed2727cb070
with target as (
    select id
    from jobs
    where id = $2::uuid
      and owner_id = $1::text
      and status = 'completed'
),
ins as (
    insert into favorites (owner_id, job_id, created_at)
    select $1::text, id, now()
    from target
    on conflict (owner_id, job_id) do nothing
    returning job_id
)
select exists (select 1 from target), exists (select 1 from ins);
`

const QDeleteFavorite = `--sql 179434f9-d9f3-4d71-ad37-47a052a82d5a
delete from favorites
where owner_id = $1::text
  and job_id = $2::uuid;
`

const QListFavorites = `--sql 480fab0c-812f-45a2-b172-fbc266623522
select
    j.id::text,
    j.scene_id,
    j.scene_type,
    j.scene_name,
    j.status,
    coalesce(jsonb_array_length(j.result_payload->'images'), 0),
    j.process_time_ms,
    coalesce(j.error_message, ''),
    j.created_at,
    j.updated_at,
    f.created_at,
    count(*) over ()
from favorites f
join jobs j on j.id = f.job_id
where f.owner_id = $1::text
  and j.status <> 'deleted'
order by f.created_at desc
limit $2::int offset $3::int;
`
